package store

import (
	"context"
	"errors"

	"github.com/tnicklin/herald/models"
)

// DefaultPath is where guild settings are persisted when no path is configured.
const DefaultPath = "channelSettings.json"

var (
	// ErrUnknownField is returned when a mutation names a field that is not
	// one of the four channel settings.
	ErrUnknownField = errors.New("unknown channel field")
	// ErrMalformed wraps parse failures of the settings file.
	ErrMalformed = errors.New("malformed settings file")
)

// Config holds store configuration.
type Config struct {
	Path string `yaml:"path"`
}

// Store keeps per-guild channel settings.
//
// Get never fails and never mutates: unknown guilds read as models.Default.
// SetField and ClearField implicitly create the guild. Save always writes the
// whole mapping.
type Store interface {
	Load(ctx context.Context) error
	Save(ctx context.Context) error

	Get(guildID string) models.GuildConfig
	Ensure(guildID, serverName string) bool
	Rename(guildID, serverName string) bool
	SetField(guildID string, field models.ChannelField, value string) error
	ClearField(guildID string, field models.ChannelField) error
	Snapshot() map[string]models.GuildConfig
}

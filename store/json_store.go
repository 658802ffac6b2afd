package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tnicklin/herald/logger"
	"github.com/tnicklin/herald/models"
	"go.uber.org/multierr"
)

var _ Store = (*JSONStore)(nil)

const indent = "    "

// JSONStore is an in-memory Store persisted as a single JSON document.
type JSONStore struct {
	mu     sync.RWMutex
	path   string
	guilds map[string]models.GuildConfig
	logger logger.Logger
}

type Params struct {
	Path   string
	Logger logger.Logger
}

// persistedGuild is the on-disk record shape. Every field is always written.
type persistedGuild struct {
	ServerName string            `json:"serverName"`
	Settings   persistedSettings `json:"settings"`
}

type persistedSettings struct {
	WelcomeChannel    string `json:"welcomeChannel"`
	MessageLogChannel string `json:"messageLogChannel"`
	GeneralLogChannel string `json:"generalLogChannel"`
	InfoChannel       string `json:"infoChannel"`
}

func NewJSONStore(p Params) *JSONStore {
	path := p.Path
	if path == "" {
		path = DefaultPath
	}
	return &JSONStore{
		path:   path,
		guilds: make(map[string]models.GuildConfig),
		logger: logger.OrNop(p.Logger),
	}
}

// Path returns the settings file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load replaces the in-memory mapping with the content of the settings file.
// A missing file leaves the store empty. A malformed file is logged, leaves
// the store empty and returns an error wrapping ErrMalformed.
func (s *JSONStore) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.guilds = make(map[string]models.GuildConfig)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.InfoW("no settings file, starting empty", "path", s.path)
			return nil
		}
		s.logger.WarnW("failed to read settings file", "path", s.path, "error", err)
		return fmt.Errorf("read settings: %w", err)
	}

	guilds, err := decode(data)
	if err != nil {
		s.logger.WarnW("settings file is malformed, starting empty", "path", s.path, "error", err)
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	s.guilds = guilds
	s.logger.InfoW("settings loaded", "path", s.path, "guilds", len(guilds))
	return nil
}

// Save writes the entire mapping to disk, replacing the previous file. The
// in-memory state is kept whether or not the write succeeds.
func (s *JSONStore) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	data, err := encode(s.guilds)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFile(s.path, data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	s.logger.DebugW("settings saved", "path", s.path, "bytes", len(data))
	return nil
}

func (s *JSONStore) Get(guildID string) models.GuildConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.guilds[guildID]
	if !ok {
		return models.Default(guildID)
	}
	return cfg.Normalized()
}

func (s *JSONStore) Ensure(guildID, serverName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(guildID, serverName)
}

// Rename updates the label of a known guild. It reports whether the stored
// name changed.
func (s *JSONStore) Rename(guildID, serverName string) bool {
	serverName = strings.TrimSpace(serverName)
	if serverName == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.guilds[guildID]
	if !ok || cfg.ServerName == serverName {
		return false
	}
	cfg.ServerName = serverName
	s.guilds[guildID] = cfg
	return true
}

func (s *JSONStore) SetField(guildID string, field models.ChannelField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownField, int(field))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLocked(guildID, "")
	s.guilds[guildID] = s.guilds[guildID].WithField(field, strings.TrimSpace(value))

	s.logger.DebugW("channel field set", "guild_id", guildID, "field", field.String(), "channel_id", value)
	return nil
}

func (s *JSONStore) ClearField(guildID string, field models.ChannelField) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownField, int(field))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLocked(guildID, "")
	s.guilds[guildID] = s.guilds[guildID].WithField(field, "")

	s.logger.DebugW("channel field cleared", "guild_id", guildID, "field", field.String())
	return nil
}

// Snapshot returns a normalized copy of every stored guild.
func (s *JSONStore) Snapshot() map[string]models.GuildConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.GuildConfig, len(s.guilds))
	for id, cfg := range s.guilds {
		out[id] = cfg.Normalized()
	}
	return out
}

func (s *JSONStore) ensureLocked(guildID, serverName string) bool {
	if _, ok := s.guilds[guildID]; ok {
		return false
	}
	s.guilds[guildID] = models.GuildConfig{
		GuildID:    guildID,
		ServerName: strings.TrimSpace(serverName),
	}
	s.logger.DebugW("guild added", "guild_id", guildID, "server_name", serverName)
	return true
}

// encode renders guilds in the persisted shape. encoding/json emits map keys
// in sorted order, which makes the output deterministic.
func encode(guilds map[string]models.GuildConfig) ([]byte, error) {
	out := make(map[string]persistedGuild, len(guilds))
	for id, cfg := range guilds {
		n := cfg.Normalized()
		out[id] = persistedGuild{
			ServerName: n.ServerName,
			Settings: persistedSettings{
				WelcomeChannel:    n.WelcomeChannel,
				MessageLogChannel: n.MessageLogChannel,
				GeneralLogChannel: n.GeneralLogChannel,
				InfoChannel:       n.InfoChannel,
			},
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func decode(data []byte) (map[string]models.GuildConfig, error) {
	guilds := make(map[string]models.GuildConfig)
	if len(bytes.TrimSpace(data)) == 0 {
		return guilds, nil
	}

	var raw map[string]persistedGuild
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	for id, rec := range raw {
		if id == "" {
			continue
		}
		cfg := models.GuildConfig{
			GuildID:           id,
			ServerName:        unsentinel(rec.ServerName, models.UndefinedServerName),
			WelcomeChannel:    unsentinel(rec.Settings.WelcomeChannel, models.NotSet),
			MessageLogChannel: unsentinel(rec.Settings.MessageLogChannel, models.NotSet),
			GeneralLogChannel: unsentinel(rec.Settings.GeneralLogChannel, models.NotSet),
			InfoChannel:       unsentinel(rec.Settings.InfoChannel, models.NotSet),
		}
		guilds[id] = cfg
	}
	return guilds, nil
}

func unsentinel(value, sentinel string) string {
	value = strings.TrimSpace(value)
	if value == sentinel {
		return ""
	}
	return value
}

// writeFile replaces path with data through a temporary file in the same
// directory so readers never observe a half-written document. The temporary
// file is removed on any failure.
func writeFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.Remove(tmpName))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

package models

import "strings"

const (
	// NotSet is the persisted value of a channel field that holds no channel.
	NotSet = "Not set"
	// UndefinedServerName labels a guild whose name was never observed.
	UndefinedServerName = "Server name undefined"
)

// ChannelField names one of the per-guild channel settings.
type ChannelField int

const (
	WelcomeChannel ChannelField = iota
	MessageLogChannel
	GeneralLogChannel
	InfoChannel
)

// ChannelFields lists every recognized field in persisted order.
var ChannelFields = []ChannelField{
	WelcomeChannel,
	MessageLogChannel,
	GeneralLogChannel,
	InfoChannel,
}

func (f ChannelField) String() string {
	switch f {
	case WelcomeChannel:
		return "welcomeChannel"
	case MessageLogChannel:
		return "messageLogChannel"
	case GeneralLogChannel:
		return "generalLogChannel"
	case InfoChannel:
		return "infoChannel"
	default:
		return "unknown"
	}
}

// Valid reports whether f is one of the four recognized fields.
func (f ChannelField) Valid() bool {
	return f >= WelcomeChannel && f <= InfoChannel
}

// Label is the human name used in command acknowledgements.
func (f ChannelField) Label() string {
	switch f {
	case WelcomeChannel:
		return "Welcome channel"
	case MessageLogChannel:
		return "Message log channel"
	case GeneralLogChannel:
		return "General log channel"
	case InfoChannel:
		return "Info channel"
	default:
		return "Unknown channel"
	}
}

// GuildConfig is the settings record of a single guild. An empty channel
// value means the field is unset.
type GuildConfig struct {
	GuildID           string `json:"-" yaml:"guild_id"`
	ServerName        string `json:"serverName" yaml:"server_name"`
	WelcomeChannel    string `json:"welcomeChannel" yaml:"welcome_channel"`
	MessageLogChannel string `json:"messageLogChannel" yaml:"message_log_channel"`
	GeneralLogChannel string `json:"generalLogChannel" yaml:"general_log_channel"`
	InfoChannel       string `json:"infoChannel" yaml:"info_channel"`
}

// Default returns the record reported for a guild the store has never seen.
func Default(guildID string) GuildConfig {
	return GuildConfig{GuildID: guildID}.Normalized()
}

// Field returns the raw value of f.
func (g GuildConfig) Field(f ChannelField) string {
	switch f {
	case WelcomeChannel:
		return g.WelcomeChannel
	case MessageLogChannel:
		return g.MessageLogChannel
	case GeneralLogChannel:
		return g.GeneralLogChannel
	case InfoChannel:
		return g.InfoChannel
	default:
		return ""
	}
}

// WithField returns a copy of g with f replaced by value.
func (g GuildConfig) WithField(f ChannelField, value string) GuildConfig {
	switch f {
	case WelcomeChannel:
		g.WelcomeChannel = value
	case MessageLogChannel:
		g.MessageLogChannel = value
	case GeneralLogChannel:
		g.GeneralLogChannel = value
	case InfoChannel:
		g.InfoChannel = value
	}
	return g
}

// Channel returns the channel id stored in f, or false when unset.
func (g GuildConfig) Channel(f ChannelField) (string, bool) {
	id := normalize(g.Field(f))
	if id == "" || id == NotSet {
		return "", false
	}
	return id, true
}

// Normalized fills every empty field with its sentinel.
func (g GuildConfig) Normalized() GuildConfig {
	if normalize(g.ServerName) == "" {
		g.ServerName = UndefinedServerName
	}
	for _, f := range ChannelFields {
		if _, ok := g.Channel(f); !ok {
			g = g.WithField(f, NotSet)
		}
	}
	return g
}

func normalize(in string) string {
	return strings.TrimSpace(in)
}

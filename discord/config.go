package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Intents requested by the bot: guild enumeration, member joins and the
// content of guild messages.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMembers

// Config holds Discord-specific configuration.
type Config struct {
	Token Secret `yaml:"token" validate:"required"`
	// ApplicationID overrides the id used to register commands. Defaults to
	// the bot user id reported on login.
	ApplicationID string `yaml:"application_id"`
}

// Secret is a string that never prints its value.
type Secret string

func (s Secret) Reveal() string {
	return string(s)
}

func (Secret) String() string {
	return "<secret>"
}

func (Secret) GoString() string {
	return "<secret>"
}

// NewSession creates an unopened bot session for cfg.
func NewSession(cfg Config) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.Token.Reveal())
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = Intents
	return session, nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/logger"
)

// Registrar is the part of *discordgo.Session used to publish commands.
type Registrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Guild identifies a synchronization target.
type Guild struct {
	ID   string
	Name string
}

// Synchronizer replaces the command set of guilds with the catalog.
type Synchronizer struct {
	registrar Registrar
	logger    logger.Logger
}

type SyncParams struct {
	Registrar Registrar
	Logger    logger.Logger
}

func NewSynchronizer(p SyncParams) *Synchronizer {
	return &Synchronizer{
		registrar: p.Registrar,
		logger:    logger.OrNop(p.Logger),
	}
}

// Synchronize overwrites the guild's commands with the full catalog.
func (s *Synchronizer) Synchronize(ctx context.Context, appID string, g Guild) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmds := ApplicationCommands()
	if _, err := s.registrar.ApplicationCommandBulkOverwrite(appID, g.ID, cmds, discordgo.WithContext(ctx)); err != nil {
		s.logger.ErrorW("failed to update commands on server",
			"guild_id", g.ID,
			"server_name", g.Name,
			"error", err,
		)
		return fmt.Errorf("synchronize commands for %s (%s): %w", g.Name, g.ID, err)
	}

	s.logger.InfoW("slash commands updated on server",
		"guild_id", g.ID,
		"server_name", g.Name,
		"commands", len(cmds),
	)
	return nil
}

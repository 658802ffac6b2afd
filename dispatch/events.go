package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/commands"
	"github.com/tnicklin/herald/models"
)

const (
	welcomeColor       = 0x7289da
	memberCountField   = "Server member count"
	unknownMemberCount = "Unknown"
)

// GuildAvailable reports a guild the bot is a member of.
type GuildAvailable struct {
	AppID   string
	GuildID string
	Name    string
}

// HandleMemberJoin greets a new member in the guild's welcome channel.
func (d *Dispatcher) HandleMemberJoin(_ context.Context, e *discordgo.GuildMemberAdd) {
	if e == nil || e.Member == nil || e.User == nil {
		return
	}
	log := d.logger.With("guild_id", e.GuildID, "user_id", e.User.ID)

	channelID, ok := d.store.Get(e.GuildID).Channel(models.WelcomeChannel)
	if !ok {
		log.InfoW("welcome channel is not set")
		return
	}
	ch, ok := d.resolveChannel(e.GuildID, channelID)
	if !ok {
		log.InfoW("welcome channel is not set", "channel_id", channelID, "reason", "channel not found")
		return
	}

	count := unknownMemberCount
	if n, err := d.platform.MemberCount(e.GuildID); err != nil {
		log.WarnW("failed to read member count", "error", err)
	} else {
		count = strconv.Itoa(n)
	}

	msg := &discordgo.MessageSend{
		Content: e.User.Mention(),
		Embeds: []*discordgo.MessageEmbed{
			{
				Color:       welcomeColor,
				Description: fmt.Sprintf("🎉 Welcome, %s!", displayName(e.Member)),
				Fields: []*discordgo.MessageEmbedField{
					{Name: memberCountField, Value: count, Inline: true},
				},
				Timestamp: d.clock.Now().UTC().Format(time.RFC3339),
			},
		},
	}
	if err := d.platform.Send(ch.ID, msg); err != nil {
		log.ErrorW("failed to send welcome message", "channel_id", ch.ID, "error", err)
		return
	}
	log.DebugW("welcome message sent", "channel_id", ch.ID)
}

// HandleMessage copies a human-authored guild message into the guild's
// message log channel. Without a configured log channel it does nothing.
func (d *Dispatcher) HandleMessage(_ context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return
	}

	channelID, ok := d.store.Get(m.GuildID).Channel(models.MessageLogChannel)
	if !ok {
		return
	}
	logCh, ok := d.resolveChannel(m.GuildID, channelID)
	if !ok {
		return
	}

	origin := m.ChannelID
	if ch, ok := d.resolveChannel(m.GuildID, m.ChannelID); ok && ch.Name != "" {
		origin = ch.Name
	}

	msg := &discordgo.MessageSend{
		Content: fmt.Sprintf("[%s]-[%s]: %s", origin, m.Author.String(), m.Content),
		// The content is copied verbatim; mentions in it must not ping again.
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}
	if err := d.platform.Send(logCh.ID, msg); err != nil {
		d.logger.ErrorW("failed to forward message to log channel",
			"guild_id", m.GuildID,
			"channel_id", logCh.ID,
			"error", err,
		)
	}
}

// HandleGuildAvailable seeds the settings of a guild and pushes the command
// catalog to it until that succeeds once in this process.
func (d *Dispatcher) HandleGuildAvailable(ctx context.Context, g GuildAvailable) {
	if g.GuildID == "" {
		return
	}
	log := d.logger.With("guild_id", g.GuildID, "server_name", g.Name)

	created := d.store.Ensure(g.GuildID, g.Name)
	renamed := !created && d.store.Rename(g.GuildID, g.Name)
	if created || renamed {
		d.save(ctx, log)
	}

	if d.synced[g.GuildID] || d.sync == nil {
		return
	}
	// The synchronizer logs failures. A failed guild is tried again on its
	// next availability event, e.g. after a reconnect.
	if err := d.sync.Synchronize(ctx, g.AppID, commands.Guild{ID: g.GuildID, Name: g.Name}); err != nil {
		return
	}
	d.synced[g.GuildID] = true
}

// displayName prefers the guild nickname, then the global display name,
// then the username.
func displayName(m *discordgo.Member) string {
	if nick := strings.TrimSpace(m.Nick); nick != "" {
		return nick
	}
	if m.User == nil {
		return ""
	}
	if global := strings.TrimSpace(m.User.GlobalName); global != "" {
		return global
	}
	return m.User.Username
}

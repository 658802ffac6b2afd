package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/commands"
	"github.com/tnicklin/herald/logger"
	"github.com/tnicklin/herald/models"
	"github.com/tnicklin/herald/timeutil"
)

// Replies sent to the invoker.
const (
	replyInfoSent          = "Information sent to the specified channel."
	replyInfoChannelAbsent = "Info channel not found."
	replyMemberNotFound    = "Member not found."
)

// HandleInteraction runs the handler bound to a slash command invocation.
// Unknown commands and invocations outside a guild are ignored.
func (d *Dispatcher) HandleInteraction(ctx context.Context, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" {
		return
	}

	data := i.ApplicationCommandData()
	cmd, err := commands.Parse(data)
	if err != nil {
		if errors.Is(err, commands.ErrUnknownCommand) || errors.Is(err, commands.ErrMissingOption) {
			d.logger.DebugW("ignoring command", "guild_id", i.GuildID, "command", data.Name, "error", err)
			return
		}
		d.logger.WarnW("failed to parse command", "guild_id", i.GuildID, "command", data.Name, "error", err)
		return
	}

	log := d.logger.With("guild_id", i.GuildID, "command", cmd.CommandName())

	switch c := cmd.(type) {
	case commands.SetChannel:
		d.setChannel(ctx, log, i.Interaction, c)
	case commands.ClearChannel:
		d.clearChannel(ctx, log, i.Interaction, c)
	case commands.MemberInfo:
		d.memberInfo(log, i.Interaction, data.Resolved, c)
	case commands.DeleteMessages, commands.Ban, commands.Mute:
		d.unavailable(log, i.Interaction, c)
	default:
		log.WarnW("command has no handler")
	}
}

func (d *Dispatcher) setChannel(ctx context.Context, log logger.Logger, i *discordgo.Interaction, c commands.SetChannel) {
	if err := d.store.SetField(i.GuildID, c.Field, c.ChannelID); err != nil {
		log.ErrorW("failed to update setting", "field", c.Field.String(), "error", err)
		return
	}
	d.save(ctx, log)

	log.InfoW("channel setting updated", "field", c.Field.String(), "channel_id", c.ChannelID)
	d.respond(log, i, fmt.Sprintf("%s set to: %s", c.Field.Label(), c.ChannelName), true)
}

func (d *Dispatcher) clearChannel(ctx context.Context, log logger.Logger, i *discordgo.Interaction, c commands.ClearChannel) {
	if err := d.store.ClearField(i.GuildID, c.Field); err != nil {
		log.ErrorW("failed to clear setting", "field", c.Field.String(), "error", err)
		return
	}
	d.save(ctx, log)

	log.InfoW("channel setting cleared", "field", c.Field.String())
	d.respond(log, i, fmt.Sprintf("%s setting has been deleted.", c.Field.Label()), true)
}

// memberInfo posts a member report to the guild's info channel. A missing
// info channel is reported publicly to the invoker.
func (d *Dispatcher) memberInfo(log logger.Logger, i *discordgo.Interaction, resolved *discordgo.ApplicationCommandInteractionDataResolved, c commands.MemberInfo) {
	member, ok := d.targetMember(i, resolved, c.UserID)
	if !ok {
		log.WarnW("member not found", "user_id", c.UserID)
		d.respond(log, i, replyMemberNotFound, false)
		return
	}

	report := fmt.Sprintf("User: %s\nJoined: %s\nRoles: %s",
		member.User.String(),
		timeutil.DateString(member.JoinedAt, d.location),
		strings.Join(d.roleNames(log, i.GuildID, member.Roles), ", "),
	)

	channelID, ok := d.store.Get(i.GuildID).Channel(models.InfoChannel)
	if !ok {
		d.respond(log, i, replyInfoChannelAbsent, false)
		return
	}
	ch, ok := d.resolveChannel(i.GuildID, channelID)
	if !ok {
		log.WarnW("info channel no longer exists", "channel_id", channelID)
		d.respond(log, i, replyInfoChannelAbsent, false)
		return
	}

	if err := d.platform.Send(ch.ID, &discordgo.MessageSend{Content: report}); err != nil {
		log.ErrorW("failed to send member info", "channel_id", ch.ID, "error", err)
		return
	}
	d.respond(log, i, replyInfoSent, true)
}

// targetMember returns the member named by userID, or the invoker when
// userID is empty.
func (d *Dispatcher) targetMember(i *discordgo.Interaction, resolved *discordgo.ApplicationCommandInteractionDataResolved, userID string) (*discordgo.Member, bool) {
	if userID == "" {
		if i.Member == nil || i.Member.User == nil {
			return nil, false
		}
		return i.Member, true
	}

	if resolved != nil {
		if m, ok := resolved.Members[userID]; ok && m != nil {
			member := *m
			if member.User == nil {
				member.User = resolved.Users[userID]
			}
			if member.User != nil {
				return &member, true
			}
		}
	}

	member, err := d.platform.Member(i.GuildID, userID)
	if err != nil || member == nil || member.User == nil {
		return nil, false
	}
	return member, true
}

// roleNames maps role ids to names, keeping the member's order. Unknown ids
// are dropped.
func (d *Dispatcher) roleNames(log logger.Logger, guildID string, roleIDs []string) []string {
	if len(roleIDs) == 0 {
		return nil
	}

	roles, err := d.platform.GuildRoles(guildID)
	if err != nil {
		log.WarnW("failed to fetch guild roles", "error", err)
		return nil
	}
	byID := make(map[string]string, len(roles))
	for _, r := range roles {
		if r != nil {
			byID[r.ID] = r.Name
		}
	}

	names := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// unavailable answers moderation commands, which are registered but perform
// no moderation.
func (d *Dispatcher) unavailable(log logger.Logger, i *discordgo.Interaction, c commands.Command) {
	log.InfoW("moderation command invoked but not handled")
	d.respond(log, i, fmt.Sprintf("`/%s` is not available on this bot.", c.CommandName()), true)
}

func (d *Dispatcher) respond(log logger.Logger, i *discordgo.Interaction, content string, private bool) {
	if err := d.platform.Respond(i, content, private); err != nil {
		log.ErrorW("failed to reply to interaction", "error", err)
	}
}

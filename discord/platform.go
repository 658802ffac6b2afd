package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/dispatch"
)

var _ dispatch.Platform = (*SessionPlatform)(nil)

// ErrForeignChannel is returned when a channel exists but belongs to another
// guild.
var ErrForeignChannel = errors.New("channel belongs to another guild")

// SessionPlatform implements dispatch.Platform on a discordgo session. Reads
// hit the state cache first and fall back to REST.
type SessionPlatform struct {
	session *discordgo.Session
}

func NewPlatform(session *discordgo.Session) *SessionPlatform {
	return &SessionPlatform{session: session}
}

func (p *SessionPlatform) Channel(guildID, channelID string) (*discordgo.Channel, error) {
	if channelID == "" {
		return nil, discordgo.ErrStateNotFound
	}

	ch, err := p.stateChannel(channelID)
	if err != nil {
		ch, err = p.session.Channel(channelID)
		if err != nil {
			return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
		}
	}
	if ch.GuildID != guildID {
		return nil, fmt.Errorf("%w: %s", ErrForeignChannel, channelID)
	}
	return ch, nil
}

func (p *SessionPlatform) Member(guildID, userID string) (*discordgo.Member, error) {
	if m, err := p.stateMember(guildID, userID); err == nil {
		return m, nil
	}
	m, err := p.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	return m, nil
}

func (p *SessionPlatform) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	if roles, err := p.stateRoles(guildID); err == nil && len(roles) > 0 {
		return roles, nil
	}
	roles, err := p.session.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("fetch roles of %s: %w", guildID, err)
	}
	return roles, nil
}

func (p *SessionPlatform) MemberCount(guildID string) (int, error) {
	if n, err := p.stateMemberCount(guildID); err == nil && n > 0 {
		return n, nil
	}
	g, err := p.session.GuildWithCounts(guildID)
	if err != nil {
		return 0, fmt.Errorf("fetch member count of %s: %w", guildID, err)
	}
	return g.ApproximateMemberCount, nil
}

func (p *SessionPlatform) Respond(i *discordgo.Interaction, content string, private bool) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if private {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return p.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (p *SessionPlatform) Send(channelID string, msg *discordgo.MessageSend) error {
	_, err := p.session.ChannelMessageSendComplex(channelID, msg)
	return err
}

// The state helpers below copy what they read while holding the state lock.
// discordgo updates cached objects in place from its event goroutines.

func (p *SessionPlatform) stateChannel(channelID string) (*discordgo.Channel, error) {
	st := p.session.State
	if st == nil {
		return nil, discordgo.ErrNilState
	}
	ch, err := st.Channel(channelID)
	if err != nil {
		return nil, err
	}

	st.RLock()
	defer st.RUnlock()
	c := *ch
	return &c, nil
}

func (p *SessionPlatform) stateMember(guildID, userID string) (*discordgo.Member, error) {
	st := p.session.State
	if st == nil {
		return nil, discordgo.ErrNilState
	}
	m, err := st.Member(guildID, userID)
	if err != nil {
		return nil, err
	}

	st.RLock()
	defer st.RUnlock()
	c := *m
	c.Roles = append([]string(nil), m.Roles...)
	if m.User != nil {
		u := *m.User
		c.User = &u
	}
	return &c, nil
}

func (p *SessionPlatform) stateRoles(guildID string) ([]*discordgo.Role, error) {
	st := p.session.State
	if st == nil {
		return nil, discordgo.ErrNilState
	}
	g, err := st.Guild(guildID)
	if err != nil {
		return nil, err
	}

	st.RLock()
	defer st.RUnlock()
	roles := make([]*discordgo.Role, 0, len(g.Roles))
	for _, r := range g.Roles {
		if r == nil {
			continue
		}
		c := *r
		roles = append(roles, &c)
	}
	return roles, nil
}

func (p *SessionPlatform) stateMemberCount(guildID string) (int, error) {
	st := p.session.State
	if st == nil {
		return 0, discordgo.ErrNilState
	}
	g, err := st.Guild(guildID)
	if err != nil {
		return 0, err
	}

	st.RLock()
	defer st.RUnlock()
	return g.MemberCount, nil
}

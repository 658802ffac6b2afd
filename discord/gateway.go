// Package discord connects the bot to the Discord gateway and forwards the
// events it cares about to the dispatcher.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/dispatch"
	"github.com/tnicklin/herald/logger"
)

// EventSink receives gateway events for serialized handling.
type EventSink interface {
	SubmitInteraction(ctx context.Context, i *discordgo.InteractionCreate) error
	SubmitMemberJoin(ctx context.Context, m *discordgo.GuildMemberAdd) error
	SubmitMessage(ctx context.Context, m *discordgo.MessageCreate) error
	SubmitGuildAvailable(ctx context.Context, g dispatch.GuildAvailable) error
}

// Gateway owns the websocket session. It implements suture.Service.
type Gateway struct {
	session *discordgo.Session
	appID   string
	sink    EventSink
	logger  logger.Logger

	mu             sync.RWMutex
	ctx            context.Context
	removeHandlers []func()
}

type Params struct {
	Config  Config
	Session *discordgo.Session
	Sink    EventSink
	Logger  logger.Logger
}

func New(p Params) *Gateway {
	return &Gateway{
		session: p.Session,
		appID:   p.Config.ApplicationID,
		sink:    p.Sink,
		logger:  logger.OrNop(p.Logger),
		ctx:     context.Background(),
	}
}

// Serve opens the session, forwards events until ctx is done and closes the
// session again.
func (g *Gateway) Serve(ctx context.Context) error {
	g.mu.Lock()
	g.ctx = ctx
	g.mu.Unlock()

	g.removeHandlers = []func(){
		g.session.AddHandler(g.onReady),
		g.session.AddHandler(g.onGuildCreate),
		g.session.AddHandler(g.onGuildUpdate),
		g.session.AddHandler(g.onInteraction),
		g.session.AddHandler(g.onMemberJoin),
		g.session.AddHandler(g.onMessage),
	}
	defer g.detach()

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}
	g.logger.InfoW("discord connection opened")

	<-ctx.Done()

	if err := g.session.Close(); err != nil {
		g.logger.WarnW("failed to close discord connection", "error", err)
	}
	g.logger.InfoW("discord connection closed")
	return nil
}

func (g *Gateway) String() string {
	return "discord gateway"
}

func (g *Gateway) detach() {
	for _, remove := range g.removeHandlers {
		remove()
	}
	g.removeHandlers = nil
}

func (g *Gateway) context() context.Context {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ctx
}

// applicationID returns the configured id or, like the bot user, the id
// reported at login.
func (g *Gateway) applicationID(s *discordgo.Session) string {
	if g.appID != "" {
		return g.appID
	}
	if s == nil || s.State == nil {
		return ""
	}
	s.State.RLock()
	defer s.State.RUnlock()
	if s.State.User != nil {
		return s.State.User.ID
	}
	return ""
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	g.logger.InfoW("logged in",
		"user", r.User.String(),
		"guilds", len(r.Guilds),
	)
}

// onGuildCreate fires for every guild after login and whenever the bot joins
// a new one.
func (g *Gateway) onGuildCreate(s *discordgo.Session, e *discordgo.GuildCreate) {
	if e.Guild == nil || e.Unavailable {
		return
	}
	g.submitGuild(s, e.Guild)
}

func (g *Gateway) onGuildUpdate(s *discordgo.Session, e *discordgo.GuildUpdate) {
	if e.Guild == nil {
		return
	}
	g.submitGuild(s, e.Guild)
}

func (g *Gateway) submitGuild(s *discordgo.Session, guild *discordgo.Guild) {
	err := g.sink.SubmitGuildAvailable(g.context(), dispatch.GuildAvailable{
		AppID:   g.applicationID(s),
		GuildID: guild.ID,
		Name:    guild.Name,
	})
	if err != nil {
		g.logger.WarnW("dropped guild event", "guild_id", guild.ID, "error", err)
	}
}

func (g *Gateway) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := g.sink.SubmitInteraction(g.context(), i); err != nil {
		g.logger.WarnW("dropped interaction", "guild_id", i.GuildID, "error", err)
	}
}

func (g *Gateway) onMemberJoin(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if err := g.sink.SubmitMemberJoin(g.context(), m); err != nil {
		g.logger.WarnW("dropped member join", "guild_id", m.GuildID, "error", err)
	}
}

func (g *Gateway) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author != nil && m.Author.Bot {
		return
	}
	if err := g.sink.SubmitMessage(g.context(), m); err != nil {
		g.logger.WarnW("dropped message", "guild_id", m.GuildID, "error", err)
	}
}

// Package dispatch routes gateway events and slash command invocations to
// handlers that read and update guild settings.
//
// Every handler runs on a single goroutine fed by a FIFO queue, so no two
// handlers ever interleave a read-modify-write of the same guild.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/clock"
	"github.com/tnicklin/herald/commands"
	"github.com/tnicklin/herald/logger"
	"github.com/tnicklin/herald/store"
	"github.com/tnicklin/herald/timeutil"
)

// DefaultQueueSize is the number of pending events buffered before Submit
// blocks.
const DefaultQueueSize = 64

// Config holds dispatcher configuration.
type Config struct {
	QueueSize int    `yaml:"queue_size"`
	Timezone  string `yaml:"timezone"`
}

// Platform is the outbound side of the chat platform used by handlers.
type Platform interface {
	// Channel resolves a channel of the guild. Channels of other guilds are
	// reported as not found.
	Channel(guildID, channelID string) (*discordgo.Channel, error)
	Member(guildID, userID string) (*discordgo.Member, error)
	GuildRoles(guildID string) ([]*discordgo.Role, error)
	MemberCount(guildID string) (int, error)
	Respond(interaction *discordgo.Interaction, content string, private bool) error
	Send(channelID string, msg *discordgo.MessageSend) error
}

// CommandSynchronizer publishes the command catalog to a guild.
type CommandSynchronizer interface {
	Synchronize(ctx context.Context, appID string, g commands.Guild) error
}

// Job is one unit of queued work.
type Job func(ctx context.Context)

type Dispatcher struct {
	store    store.Store
	platform Platform
	sync     CommandSynchronizer
	clock    clock.Clock
	location *time.Location
	logger   logger.Logger

	queue chan Job
	// synced records guilds whose commands were pushed by this process.
	// Only touched from handlers.
	synced map[string]bool
}

type Params struct {
	Config       Config
	Store        store.Store
	Platform     Platform
	Synchronizer CommandSynchronizer
	Clock        clock.Clock
	Logger       logger.Logger
}

func New(p Params) *Dispatcher {
	size := p.Config.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	c := p.Clock
	if c == nil {
		c = clock.System()
	}

	return &Dispatcher{
		store:    p.Store,
		platform: p.Platform,
		sync:     p.Synchronizer,
		clock:    c,
		location: timeutil.Location(p.Config.Timezone),
		logger:   logger.OrNop(p.Logger),
		queue:    make(chan Job, size),
		synced:   make(map[string]bool),
	}
}

// Submit queues job for execution by Serve. It blocks while the queue is
// full and gives up when ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, job Job) error {
	select {
	case d.queue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve runs queued jobs one at a time until ctx is done. It implements
// suture.Service.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.logger.InfoW("dispatcher started")
	defer d.logger.InfoW("dispatcher stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-d.queue:
			d.run(ctx, job)
		}
	}
}

func (d *Dispatcher) String() string {
	return fmt.Sprintf("dispatcher(%d/%d)", len(d.queue), cap(d.queue))
}

// run executes a job and contains its panics so one bad event does not stop
// the queue.
func (d *Dispatcher) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorW("event handler panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	job(ctx)
}

// SubmitInteraction, SubmitMemberJoin, SubmitMessage and SubmitGuildAvailable
// queue the matching handler.
func (d *Dispatcher) SubmitInteraction(ctx context.Context, i *discordgo.InteractionCreate) error {
	return d.Submit(ctx, func(ctx context.Context) { d.HandleInteraction(ctx, i) })
}

func (d *Dispatcher) SubmitMemberJoin(ctx context.Context, m *discordgo.GuildMemberAdd) error {
	return d.Submit(ctx, func(ctx context.Context) { d.HandleMemberJoin(ctx, m) })
}

func (d *Dispatcher) SubmitMessage(ctx context.Context, m *discordgo.MessageCreate) error {
	return d.Submit(ctx, func(ctx context.Context) { d.HandleMessage(ctx, m) })
}

func (d *Dispatcher) SubmitGuildAvailable(ctx context.Context, g GuildAvailable) error {
	return d.Submit(ctx, func(ctx context.Context) { d.HandleGuildAvailable(ctx, g) })
}

// save persists the store. Failures are logged only; the in-memory state
// stays authoritative.
func (d *Dispatcher) save(ctx context.Context, log logger.Logger) {
	if err := d.store.Save(ctx); err != nil {
		log.ErrorW("failed to save guild settings", "error", err)
	}
}

// resolveChannel returns the channel stored in id when it still exists in
// the guild.
func (d *Dispatcher) resolveChannel(guildID, channelID string) (*discordgo.Channel, bool) {
	ch, err := d.platform.Channel(guildID, channelID)
	if err != nil || ch == nil {
		return nil, false
	}
	return ch, true
}

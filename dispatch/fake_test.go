package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/clock"
	"github.com/tnicklin/herald/commands"
	"github.com/tnicklin/herald/store"
)

var errNotFound = errors.New("not found")

type sentMessage struct {
	ChannelID string
	Msg       *discordgo.MessageSend
}

type response struct {
	Content string
	Private bool
}

type fakePlatform struct {
	mu          sync.Mutex
	channels    map[string]*discordgo.Channel
	members     map[string]*discordgo.Member
	roles       []*discordgo.Role
	memberCount int
	sendErr     error

	sent      []sentMessage
	responses []response
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		channels: make(map[string]*discordgo.Channel),
		members:  make(map[string]*discordgo.Member),
	}
}

func (f *fakePlatform) addChannel(guildID, id, name string) {
	f.channels[id] = &discordgo.Channel{ID: id, GuildID: guildID, Name: name}
}

func (f *fakePlatform) Channel(guildID, channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok || ch.GuildID != guildID {
		return nil, errNotFound
	}
	return ch, nil
}

func (f *fakePlatform) Member(_, userID string) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[userID]
	if !ok {
		return nil, errNotFound
	}
	return m, nil
}

func (f *fakePlatform) GuildRoles(string) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func (f *fakePlatform) MemberCount(string) (int, error) {
	return f.memberCount, nil
}

func (f *fakePlatform) Respond(_ *discordgo.Interaction, content string, private bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response{Content: content, Private: private})
	return nil
}

func (f *fakePlatform) Send(channelID string, msg *discordgo.MessageSend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Msg: msg})
	return nil
}

type fakeSynchronizer struct {
	mu     sync.Mutex
	guilds []commands.Guild
	appIDs []string
	err    error
}

func (f *fakeSynchronizer) Synchronize(_ context.Context, appID string, g commands.Guild) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds = append(f.guilds, g)
	f.appIDs = append(f.appIDs, appID)
	return f.err
}

type harness struct {
	d        *Dispatcher
	store    *store.JSONStore
	platform *fakePlatform
	sync     *fakeSynchronizer
	path     string
}

var testNow = time.Date(2026, 2, 3, 15, 4, 5, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channelSettings.json")
	st := store.NewJSONStore(store.Params{Path: path})
	platform := newFakePlatform()
	syncer := &fakeSynchronizer{}

	d := New(Params{
		Store:        st,
		Platform:     platform,
		Synchronizer: syncer,
		Clock:        clock.NewFixed(testNow),
	})
	return &harness{d: d, store: st, platform: platform, sync: syncer, path: path}
}

func commandInteraction(guildID string, invoker *discordgo.Member, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:      "interaction",
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: guildID,
			Member:  invoker,
			Data:    data,
		},
	}
}

func channelOption(id string) []*discordgo.ApplicationCommandInteractionDataOption {
	return []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "channel", Type: discordgo.ApplicationCommandOptionChannel, Value: id},
	}
}

func userOption(id string) []*discordgo.ApplicationCommandInteractionDataOption {
	return []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "user", Type: discordgo.ApplicationCommandOptionUser, Value: id},
	}
}

// newBrokenStore returns a store whose Save always fails because its parent
// path is a regular file.
func newBrokenStore(t *testing.T, blocker string) *store.JSONStore {
	t.Helper()
	return store.NewJSONStore(store.Params{Path: filepath.Join(blocker, "channelSettings.json")})
}

package commands

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type fakeRegistrar struct {
	mu      sync.Mutex
	calls   map[string][]*discordgo.ApplicationCommand
	appIDs  []string
	failFor map[string]error
}

func (f *fakeRegistrar) ApplicationCommandBulkOverwrite(appID string, guildID string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.appIDs = append(f.appIDs, appID)
	if err := f.failFor[guildID]; err != nil {
		return nil, err
	}
	if f.calls == nil {
		f.calls = make(map[string][]*discordgo.ApplicationCommand)
	}
	f.calls[guildID] = cmds
	return cmds, nil
}

func TestSynchronizePushesFullCatalog(t *testing.T) {
	reg := &fakeRegistrar{}
	s := NewSynchronizer(SyncParams{Registrar: reg})

	if err := s.Synchronize(context.Background(), "app", Guild{ID: "g1", Name: "One"}); err != nil {
		t.Fatalf("Synchronize() error = %v", err)
	}
	if len(reg.calls["g1"]) != len(Catalog()) {
		t.Fatalf("expected %d commands, got %d", len(Catalog()), len(reg.calls["g1"]))
	}
	if reg.appIDs[0] != "app" {
		t.Fatalf("expected app id to be forwarded, got %q", reg.appIDs[0])
	}
}

func TestSynchronizeReportsFailure(t *testing.T) {
	boom := errors.New("missing access")
	reg := &fakeRegistrar{failFor: map[string]error{"g2": boom}}
	s := NewSynchronizer(SyncParams{Registrar: reg})

	err := s.Synchronize(context.Background(), "app", Guild{ID: "g2", Name: "Two"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected error to wrap failure, got %v", err)
	}
	if _, ok := reg.calls["g2"]; ok {
		t.Fatal("failed guild should not be recorded as synchronized")
	}
}

func TestSynchronizeCanceledContext(t *testing.T) {
	reg := &fakeRegistrar{}
	s := NewSynchronizer(SyncParams{Registrar: reg})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Synchronize(ctx, "app", Guild{ID: "g1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(reg.appIDs) != 0 {
		t.Fatal("registrar must not be called with a canceled context")
	}
}

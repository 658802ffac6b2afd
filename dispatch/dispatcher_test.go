package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/herald/models"
)

func serve(t *testing.T, d *Dispatcher) (context.Context, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Serve(ctx)
	}()
	return ctx, func() {
		cancel()
		<-done
	}
}

func TestServeRunsJobsInOrder(t *testing.T) {
	h := newHarness(t)
	ctx, stop := serve(t, h.d)
	defer stop()

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		if err := h.d.Submit(ctx, func(context.Context) {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("job %d ran at position %d", v, i)
		}
	}
}

func TestServeSerializesConcurrentSubmissions(t *testing.T) {
	h := newHarness(t)
	ctx, stop := serve(t, h.d)
	defer stop()

	var (
		wg      sync.WaitGroup
		running int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			_ = h.d.Submit(ctx, func(context.Context) {
				defer wg.Done()
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				running--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected handlers to run one at a time, saw %d concurrently", maxSeen)
	}
}

func TestServeSurvivesPanickingJob(t *testing.T) {
	h := newHarness(t)
	ctx, stop := serve(t, h.d)
	defer stop()

	_ = h.d.Submit(ctx, func(context.Context) { panic("boom") })

	done := make(chan struct{})
	_ = h.d.Submit(ctx, func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queue stopped after a panicking job")
	}
}

func TestSubmitHonorsContext(t *testing.T) {
	h := newHarness(t)
	h.d.queue = make(chan Job) // unbuffered and never served

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := h.d.Submit(ctx, func(context.Context) {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSubmittedEventsReachHandlers(t *testing.T) {
	h := newHarness(t)
	h.platform.addChannel("G", "C", "welcome")
	h.platform.memberCount = 3
	ctx, stop := serve(t, h.d)
	defer stop()

	err := h.d.SubmitInteraction(ctx, commandInteraction("G", invoker(), discordgo.ApplicationCommandInteractionData{
		Name:    "setwelcome",
		Options: channelOption("C"),
	}))
	if err != nil {
		t.Fatalf("submit interaction: %v", err)
	}
	if err := h.d.SubmitMemberJoin(ctx, memberJoin("G", &discordgo.User{ID: "9", Username: "Ada"})); err != nil {
		t.Fatalf("submit join: %v", err)
	}
	if err := h.d.SubmitGuildAvailable(ctx, GuildAvailable{AppID: "app", GuildID: "G", Name: "Guild"}); err != nil {
		t.Fatalf("submit guild: %v", err)
	}

	done := make(chan struct{})
	_ = h.d.Submit(ctx, func(context.Context) { close(done) })
	<-done

	if id, ok := h.store.Get("G").Channel(models.WelcomeChannel); !ok || id != "C" {
		t.Fatalf("welcome channel = %q (%v)", id, ok)
	}
	h.platform.mu.Lock()
	defer h.platform.mu.Unlock()
	if len(h.platform.sent) != 1 {
		t.Fatalf("expected the join to see the new setting, got %d sends", len(h.platform.sent))
	}
	if h.store.Get("G").ServerName != "Guild" {
		t.Fatalf("ServerName = %q", h.store.Get("G").ServerName)
	}
}

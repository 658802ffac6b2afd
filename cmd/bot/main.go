package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/tnicklin/herald/commands"
	"github.com/tnicklin/herald/config"
	"github.com/tnicklin/herald/discord"
	"github.com/tnicklin/herald/dispatch"
	"github.com/tnicklin/herald/logger"
	"github.com/tnicklin/herald/store"
)

func main() {
	params, err := build()
	if err != nil {
		log.Fatal(err)
	}

	if err = run(params); err != nil {
		log.Fatal(err)
	}
}

func build() (runParams, error) {
	cfg, err := config.LoadWithDefaults("config/config.yaml", "config/secrets.yaml")
	if err != nil {
		return runParams{}, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return runParams{}, fmt.Errorf("initialize logger: %w", err)
	}

	session, err := discord.NewSession(cfg.Discord)
	if err != nil {
		return runParams{}, err
	}

	st := store.NewJSONStore(store.Params{
		Path:   cfg.Store.Path,
		Logger: appLogger.With("component", "store"),
	})

	synchronizer := commands.NewSynchronizer(commands.SyncParams{
		Registrar: session,
		Logger:    appLogger.With("component", "commands"),
	})

	dispatcher := dispatch.New(dispatch.Params{
		Config:       cfg.Dispatch,
		Store:        st,
		Platform:     discord.NewPlatform(session),
		Synchronizer: synchronizer,
		Logger:       appLogger.With("component", "dispatch"),
	})

	gateway := discord.New(discord.Params{
		Config:  cfg.Discord,
		Session: session,
		Sink:    dispatcher,
		Logger:  appLogger.With("component", "gateway"),
	})

	return runParams{
		Logger:     appLogger,
		Store:      st,
		Dispatcher: dispatcher,
		Gateway:    gateway,
	}, nil
}

type runParams struct {
	Logger     logger.Logger
	Store      *store.JSONStore
	Dispatcher *dispatch.Dispatcher
	Gateway    *discord.Gateway
}

// run loads persisted settings and serves until SIGINT or SIGTERM.
func run(p runParams) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer p.Logger.Sync()

	if err := p.Store.Load(ctx); err != nil {
		p.Logger.WarnW("starting with empty settings", "path", p.Store.Path(), "error", err)
	}

	sup := newSupervisor(p.Logger)
	sup.Add(p.Dispatcher)
	sup.Add(p.Gateway)

	p.Logger.InfoW("starting", "settings", p.Store.Path())
	err := sup.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := p.Store.Save(shutdownCtx); err != nil {
		p.Logger.ErrorW("failed to save settings on shutdown", "path", p.Store.Path(), "error", err)
	}
	p.Logger.InfoW("stopped")
	return nil
}

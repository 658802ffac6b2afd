package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tnicklin/herald/discord"
	"github.com/tnicklin/herald/dispatch"
	"github.com/tnicklin/herald/logger"
	"github.com/tnicklin/herald/store"
	"go.uber.org/config"
)

// TokenEnvVars are consulted in order for the bot token; the first
// non-empty value wins over the YAML one.
var TokenEnvVars = []string{"DISCORD_TOKEN", "TOKEN"}

// AppConfig holds all application configuration.
type AppConfig struct {
	Logger   logger.Config   `yaml:"logger"`
	Discord  discord.Config  `yaml:"discord"`
	Store    store.Config    `yaml:"store"`
	Dispatch dispatch.Config `yaml:"dispatch"`
}

// Load reads configuration from the specified YAML files.
// Files are merged in order, with later files overriding earlier ones.
// Missing files are silently ignored.
func Load(files ...string) (*AppConfig, error) {
	opts := make([]config.YAMLOption, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			opts = append(opts, config.File(f))
		}
	}

	if len(opts) == 0 {
		return nil, os.ErrNotExist
	}

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration, applies the environment token and
// sensible defaults, then validates the result. The YAML files are optional.
func LoadWithDefaults(files ...string) (*AppConfig, error) {
	cfg, err := Load(files...)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = &AppConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	for _, name := range TokenEnvVars {
		if token := strings.TrimSpace(os.Getenv(name)); token != "" {
			cfg.Discord.Token = discord.Secret(token)
			break
		}
	}

	// Apply defaults
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if len(cfg.Logger.OutputPaths) == 0 {
		cfg.Logger.OutputPaths = []string{"stdout"}
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = store.DefaultPath
	}
	if cfg.Dispatch.QueueSize == 0 {
		cfg.Dispatch.QueueSize = dispatch.DefaultQueueSize
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

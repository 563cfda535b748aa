package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath       = "config.toml"
	DefaultPollTimeout      = 30
	DefaultJanitorSchedule  = "@hourly"
	DefaultJanitorRetention = "24h"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Telegram TelegramConfig `toml:"telegram"`
	Download DownloadConfig `toml:"download"`
	Janitor  JanitorConfig  `toml:"janitor"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TelegramConfig struct {
	BotToken           string `toml:"bot_token" validate:"required"`
	PollTimeoutSeconds int    `toml:"poll_timeout_seconds" validate:"gt=0"`
}

type DownloadConfig struct {
	TempDir string `toml:"temp_dir" validate:"required"`
}

type JanitorConfig struct {
	Schedule  string `toml:"schedule" validate:"required"`
	Retention string `toml:"retention" validate:"required"`
}

// RetentionDuration parses the retention window.
func (c JanitorConfig) RetentionDuration() (time.Duration, error) {
	return time.ParseDuration(c.Retention)
}

// Load reads the config file at path (falling back to config.toml) on top of
// defaults. A missing file is not an error; validation catches whatever is
// still unset afterwards.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telegram: TelegramConfig{
			PollTimeoutSeconds: DefaultPollTimeout,
		},
		Download: DownloadConfig{
			// A dedicated subdirectory: the janitor sweeps this dir, so it
			// must never point at the shared system temp dir itself.
			TempDir: filepath.Join(os.TempDir(), "videobot"),
		},
		Janitor: JanitorConfig{
			Schedule:  DefaultJanitorSchedule,
			Retention: DefaultJanitorRetention,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the loaded configuration. The bot token has no default;
// running without one fails here with a clear message.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Janitor.RetentionDuration(); err != nil {
		return fmt.Errorf("invalid janitor retention: %w", err)
	}
	return nil
}

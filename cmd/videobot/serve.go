package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Hesham174/telegram-video-downloader-bot/internal/channel/telegram"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/config"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/fetch"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/janitor"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/logger"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/pipeline"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideTelegramAdapter,
			provideFetcher,
			providePipeline,
			provideJanitor,
		),
		fx.Invoke(
			ensureExtractor,
			startJanitor,
			startReceiver,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if err := os.MkdirAll(cfg.Download.TempDir, 0o755); err != nil {
		return config.Config{}, fmt.Errorf("create download dir: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideTelegramAdapter(log *slog.Logger, cfg config.Config) (*telegram.Adapter, error) {
	return telegram.New(log, cfg.Telegram.BotToken, cfg.Telegram.PollTimeoutSeconds)
}

func provideFetcher(log *slog.Logger, cfg config.Config) *fetch.Fetcher {
	return fetch.New(log, cfg.Download.TempDir)
}

func providePipeline(log *slog.Logger, fetcher *fetch.Fetcher, adapter *telegram.Adapter) *pipeline.Pipeline {
	return pipeline.New(log, fetcher, adapter)
}

func provideJanitor(log *slog.Logger, cfg config.Config) (*janitor.Janitor, error) {
	retention, err := cfg.Janitor.RetentionDuration()
	if err != nil {
		return nil, err
	}
	return janitor.New(log, cfg.Download.TempDir, retention, cfg.Janitor.Schedule), nil
}

// ensureExtractor downloads a yt-dlp binary when none is on PATH. A failure
// here is only a warning: the binary may still arrive out of band before the
// first download request.
func ensureExtractor(lc fx.Lifecycle, log *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := ytdlp.Install(ctx, nil); err != nil {
				log.Warn("yt-dlp install check failed", slog.Any("error", err))
			}
			return nil
		},
	})
}

func startJanitor(lc fx.Lifecycle, j *janitor.Janitor) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return j.Start() },
		OnStop:  func(context.Context) error { j.Stop(); return nil },
	})
}

func startReceiver(lc fx.Lifecycle, log *slog.Logger, adapter *telegram.Adapter, p *pipeline.Pipeline) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info("starting bot")
			go func() {
				defer close(done)
				if err := adapter.Run(ctx, p.Handle); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("receiver stopped", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			// Wait for the receiver to finish draining updates so the
			// long-poll session is fully released before the process exits.
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

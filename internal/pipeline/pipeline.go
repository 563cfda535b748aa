// Package pipeline sequences one fetch-and-deliver run per inbound message:
// URL detection, media fetch, size-based delivery, and unconditional cleanup.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Hesham174/telegram-video-downloader-bot/internal/channel"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/fetch"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/link"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/media"
)

const (
	guidanceMessage     = "Please send me a valid video URL starting with http or https."
	downloadFailMessage = "Sorry, I couldn't download the video. Please make sure the URL is correct and try again."
	sendFailMessage     = "Sorry, something went wrong while sending the video. Please try again later."
	videoCaption        = "Here is your video!"
	documentCaption     = "Here is your video (sent as a document due to size)."
)

// Fetcher resolves a URL to a downloaded local file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Result, error)
}

// Pipeline runs the download state machine. Instances are stateless; every
// inbound message gets an independent run with no shared mutable state.
type Pipeline struct {
	logger    *slog.Logger
	fetcher   Fetcher
	messenger channel.Messenger
}

// New builds a Pipeline.
func New(log *slog.Logger, fetcher Fetcher, messenger channel.Messenger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		logger:    log.With(slog.String("component", "pipeline")),
		fetcher:   fetcher,
		messenger: messenger,
	}
}

// Handle processes one inbound message end to end. It is called on its own
// goroutine by the receiver, so the blocking fetch never stalls the polling
// loop. All failures end in a user-facing message, never a crash.
func (p *Pipeline) Handle(ctx context.Context, msg channel.InboundMessage) {
	log := p.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.Int64("chat_id", msg.ChatID),
		slog.String("user_id", msg.Sender.UserID),
	)

	url, ok := link.Find(msg.Text)
	if !ok {
		log.Info("no url in message")
		p.reply(ctx, log, msg.ChatID, guidanceMessage)
		return
	}

	log.Info("download requested", slog.String("url", url))
	p.reply(ctx, log, msg.ChatID, "Downloading video...\nURL: "+url)

	result, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		switch {
		case errors.Is(err, fetch.ErrExtraction), errors.Is(err, fetch.ErrNoFileProduced):
			log.Error("fetch failed", slog.String("url", url), slog.Any("error", err))
		default:
			log.Error("unexpected fetch failure", slog.String("url", url), slog.Any("error", err))
		}
		p.reply(ctx, log, msg.ChatID, downloadFailMessage)
		return
	}

	// The file is deleted on every exit path from here on, delivered or not.
	defer func() {
		if err := os.Remove(result.Path); err != nil && !os.IsNotExist(err) {
			log.Warn("cleanup failed", slog.String("path", result.Path), slog.Any("error", err))
		}
	}()

	if err := p.deliver(ctx, log, msg.ChatID, result); err != nil {
		log.Error("delivery failed", slog.String("path", result.Path), slog.Any("error", err))
		p.reply(ctx, log, msg.ChatID, sendFailMessage)
	}
}

func (p *Pipeline) deliver(ctx context.Context, log *slog.Logger, chatID int64, result fetch.Result) error {
	file, err := os.Open(result.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	name := media.SanitizeFilename(filepath.Base(result.Path))
	switch media.SelectChannel(result.SizeBytes) {
	case media.ChannelVideo:
		log.Info("sending video",
			slog.String("path", result.Path),
			slog.Int64("size_bytes", result.SizeBytes))
		p.activity(ctx, log, chatID, channel.ActivityUploadVideo)
		return p.messenger.SendVideo(ctx, chatID, file, name, videoCaption)
	default:
		log.Info("sending document",
			slog.String("path", result.Path),
			slog.Int64("size_bytes", result.SizeBytes))
		p.activity(ctx, log, chatID, channel.ActivityUploadDocument)
		return p.messenger.SendDocument(ctx, chatID, file, name, documentCaption)
	}
}

func (p *Pipeline) reply(ctx context.Context, log *slog.Logger, chatID int64, text string) {
	if err := p.messenger.SendText(ctx, chatID, text); err != nil {
		log.Error("send message failed", slog.Any("error", err))
	}
}

func (p *Pipeline) activity(ctx context.Context, log *slog.Logger, chatID int64, activity channel.Activity) {
	if err := p.messenger.SendActivity(ctx, chatID, activity); err != nil {
		log.Warn("send activity failed", slog.Any("error", err))
	}
}

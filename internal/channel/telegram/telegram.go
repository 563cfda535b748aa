// Package telegram adapts the Telegram Bot API to the channel interfaces.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Hesham174/telegram-video-downloader-bot/internal/channel"
)

const startGreeting = "Hello! 👋\n\n" +
	"I am a video downloader bot. Send me a video URL (e.g. a YouTube link), and I will download the " +
	"video and send it back to you.\n\n" +
	"*Please note*: The download might take some time depending on the file size and network speed."

// Adapter implements channel.Messenger and channel.Receiver on top of a
// single Telegram bot connection.
type Adapter struct {
	logger      *slog.Logger
	bot         *tgbotapi.BotAPI
	pollTimeout int
}

// New authenticates against the Telegram Bot API and returns an adapter.
func New(log *slog.Logger, token string, pollTimeoutSeconds int) (*Adapter, error) {
	if log == nil {
		log = slog.Default()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	adapter := &Adapter{
		logger:      log.With(slog.String("adapter", "telegram")),
		bot:         bot,
		pollTimeout: pollTimeoutSeconds,
	}
	adapter.logger.Info("authorized", slog.String("bot_username", bot.Self.UserName))
	return adapter, nil
}

// Run long-polls for updates and dispatches each text message to the handler
// on its own goroutine until ctx is cancelled. Commands never reach the
// handler: /start gets the greeting, anything else is ignored.
func (a *Adapter) Run(ctx context.Context, handler channel.InboundHandler) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = a.pollTimeout
	updates := a.bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			// Drain so the library's polling goroutine can finish its
			// in-flight long-poll and exit; otherwise a restart with the
			// same token hits "Conflict: terminated by other getUpdates
			// request".
			for range updates {
			}
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				a.logger.Info("updates channel closed")
				return nil
			}
			if update.Message == nil {
				continue
			}
			if update.Message.IsCommand() {
				a.handleCommand(update.Message)
				continue
			}
			msg := buildInbound(update.Message)
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			a.logger.Info("inbound received",
				slog.Int64("chat_id", msg.ChatID),
				slog.String("user_id", msg.Sender.UserID),
				slog.String("text", msg.Text))
			go handler(ctx, msg)
		}
	}
}

func (a *Adapter) handleCommand(msg *tgbotapi.Message) {
	if msg.Command() != "start" {
		return
	}
	sender := resolveSender(msg)
	a.logger.Info("received /start command", slog.String("user_id", sender.UserID))
	reply := tgbotapi.NewMessage(msg.Chat.ID, startGreeting)
	reply.ParseMode = tgbotapi.ModeMarkdown
	if _, err := a.bot.Send(reply); err != nil {
		a.logger.Error("send greeting failed", slog.Any("error", err))
	}
}

// SendText delivers a plain-text message to the chat.
func (a *Adapter) SendText(_ context.Context, chatID int64, text string) error {
	_, err := a.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendActivity shows a chat action ("uploading video...") in the chat.
func (a *Adapter) SendActivity(_ context.Context, chatID int64, activity channel.Activity) error {
	action := tgbotapi.NewChatAction(chatID, chatAction(activity))
	_, err := a.bot.Request(action)
	return err
}

// SendVideo uploads the stream as an inline video message.
func (a *Adapter) SendVideo(_ context.Context, chatID int64, file io.Reader, name, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileReader{Name: name, Reader: file})
	video.Caption = caption
	_, err := a.bot.Send(video)
	return err
}

// SendDocument uploads the stream as a generic document attachment.
func (a *Adapter) SendDocument(_ context.Context, chatID int64, file io.Reader, filename, caption string) error {
	document := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: filename, Reader: file})
	document.Caption = caption
	_, err := a.bot.Send(document)
	return err
}

func chatAction(activity channel.Activity) string {
	switch activity {
	case channel.ActivityUploadDocument:
		return tgbotapi.ChatUploadDocument
	default:
		return tgbotapi.ChatUploadVideo
	}
}

// buildInbound maps a plain text message. Media messages and their captions
// are not download requests; they yield an empty Text and the caller drops
// them.
func buildInbound(msg *tgbotapi.Message) channel.InboundMessage {
	inbound := channel.InboundMessage{
		MessageID: msg.MessageID,
		Text:      strings.TrimSpace(msg.Text),
		Sender:    resolveSender(msg),
	}
	if msg.Chat != nil {
		inbound.ChatID = msg.Chat.ID
	}
	return inbound
}

func resolveSender(msg *tgbotapi.Message) channel.Identity {
	if msg == nil || msg.From == nil {
		return channel.Identity{}
	}
	displayName := strings.TrimSpace(msg.From.UserName)
	if displayName == "" {
		displayName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}
	return channel.Identity{
		UserID:      fmt.Sprintf("%d", msg.From.ID),
		Username:    strings.TrimSpace(msg.From.UserName),
		DisplayName: displayName,
	}
}

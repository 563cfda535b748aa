// Package channel defines the narrow boundary between the download pipeline
// and the chat platform that carries its messages.
package channel

import (
	"context"
	"io"
)

// Identity represents the sender of an inbound message.
type Identity struct {
	UserID      string
	Username    string
	DisplayName string
}

// InboundMessage is a text message received from the chat platform.
type InboundMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Sender    Identity
}

// Activity is a transient status indicator shown to the user before a long
// operation (Telegram chat actions).
type Activity string

const (
	ActivityUploadVideo    Activity = "upload_video"
	ActivityUploadDocument Activity = "upload_document"
)

// InboundHandler processes one inbound message. The receiver invokes it on a
// dedicated goroutine so the polling loop stays responsive.
type InboundHandler func(ctx context.Context, msg InboundMessage)

// Messenger sends outbound traffic back to a chat.
type Messenger interface {
	// SendText delivers a plain-text status or error message.
	SendText(ctx context.Context, chatID int64, text string) error
	// SendActivity shows an activity indicator in the chat.
	SendActivity(ctx context.Context, chatID int64, activity Activity) error
	// SendVideo delivers a file as playable inline media with a caption.
	SendVideo(ctx context.Context, chatID int64, file io.Reader, name, caption string) error
	// SendDocument delivers a file as a generic attachment carrying a filename.
	SendDocument(ctx context.Context, chatID int64, file io.Reader, filename, caption string) error
}

// Receiver runs the platform's inbound message loop until ctx is cancelled.
type Receiver interface {
	Run(ctx context.Context, handler InboundHandler) error
}

// Package media holds delivery policy for fetched files: filename
// sanitization and size-based channel selection.
package media

const (
	// MaxInlineVideoBytes is the largest file the bot delivers as an inline
	// video message. Anything bigger goes out as a document, which Telegram
	// accepts up to 2 GB.
	MaxInlineVideoBytes int64 = 50 * 1024 * 1024
)

// Channel identifies how a fetched file is delivered back to the user.
type Channel string

const (
	ChannelVideo    Channel = "video"
	ChannelDocument Channel = "document"
)

// SelectChannel picks the delivery channel for a file of the given size.
func SelectChannel(sizeBytes int64) Channel {
	if sizeBytes <= MaxInlineVideoBytes {
		return ChannelVideo
	}
	return ChannelDocument
}

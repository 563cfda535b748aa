package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hesham174/telegram-video-downloader-bot/internal/channel"
	"github.com/Hesham174/telegram-video-downloader-bot/internal/fetch"
)

type sentFile struct {
	name    string
	caption string
}

type fakeMessenger struct {
	mu         sync.Mutex
	texts      []string
	activities []channel.Activity
	videos     []sentFile
	documents  []sentFile
	videoErr   error
}

func (m *fakeMessenger) SendText(_ context.Context, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *fakeMessenger) SendActivity(_ context.Context, _ int64, activity channel.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, activity)
	return nil
}

func (m *fakeMessenger) SendVideo(_ context.Context, _ int64, file io.Reader, name, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.videoErr != nil {
		return m.videoErr
	}
	m.videos = append(m.videos, sentFile{name: name, caption: caption})
	return nil
}

func (m *fakeMessenger) SendDocument(_ context.Context, _ int64, file io.Reader, filename, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, sentFile{name: filename, caption: caption})
	return nil
}

type fakeFetcher struct {
	result fetch.Result
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (fetch.Result, error) {
	f.calls++
	return f.result, f.err
}

func writeTempVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0o644))
	return path
}

func TestHandleSmallFileGoesOutAsVideo(t *testing.T) {
	t.Parallel()

	path := writeTempVideo(t, "clip.mp4")
	fetcher := &fakeFetcher{result: fetch.Result{Path: path, SizeBytes: 10_000_000}}
	messenger := &fakeMessenger{}
	p := New(nil, fetcher, messenger)

	p.Handle(context.Background(), channel.InboundMessage{
		ChatID: 1,
		Text:   "check this out https://example.com/v/1 thanks",
	})

	require.Len(t, messenger.videos, 1)
	assert.Equal(t, "clip.mp4", messenger.videos[0].name)
	assert.Equal(t, "Here is your video!", messenger.videos[0].caption)
	assert.Empty(t, messenger.documents)
	assert.Equal(t, []channel.Activity{channel.ActivityUploadVideo}, messenger.activities)
	require.Len(t, messenger.texts, 1)
	assert.Equal(t, "Downloading video...\nURL: https://example.com/v/1", messenger.texts[0])

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file must be deleted after delivery")
}

func TestHandleLargeFileGoesOutAsDocument(t *testing.T) {
	t.Parallel()

	path := writeTempVideo(t, "big.mp4")
	fetcher := &fakeFetcher{result: fetch.Result{Path: path, SizeBytes: 80_000_000}}
	messenger := &fakeMessenger{}
	p := New(nil, fetcher, messenger)

	p.Handle(context.Background(), channel.InboundMessage{
		ChatID: 1,
		Text:   "check this out https://example.com/v/1 thanks",
	})

	require.Len(t, messenger.documents, 1)
	assert.Equal(t, "big.mp4", messenger.documents[0].name)
	assert.Equal(t, "Here is your video (sent as a document due to size).", messenger.documents[0].caption)
	assert.Empty(t, messenger.videos)
	assert.Equal(t, []channel.Activity{channel.ActivityUploadDocument}, messenger.activities)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestHandleNoURLSendsGuidanceWithoutFetching(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	messenger := &fakeMessenger{}
	p := New(nil, fetcher, messenger)

	p.Handle(context.Background(), channel.InboundMessage{ChatID: 1, Text: "hello there"})

	assert.Zero(t, fetcher.calls, "fetcher must not run without a URL")
	require.Equal(t, []string{"Please send me a valid video URL starting with http or https."}, messenger.texts)
	assert.Empty(t, messenger.activities)
	assert.Empty(t, messenger.videos)
	assert.Empty(t, messenger.documents)
}

func TestHandleFetchFailureSendsFailureMessage(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: fetch.ErrExtraction}
	messenger := &fakeMessenger{}
	p := New(nil, fetcher, messenger)

	p.Handle(context.Background(), channel.InboundMessage{
		ChatID: 1,
		Text:   "https://example.com/v/1",
	})

	require.Len(t, messenger.texts, 2, "acknowledgment then failure")
	assert.Equal(t, "Sorry, I couldn't download the video. Please make sure the URL is correct and try again.", messenger.texts[1])
	assert.Empty(t, messenger.videos)
	assert.Empty(t, messenger.documents)
}

func TestHandleUnexpectedFetchErrorIsContained(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: errors.New("executable not found")}
	messenger := &fakeMessenger{}
	p := New(nil, fetcher, messenger)

	p.Handle(context.Background(), channel.InboundMessage{ChatID: 1, Text: "https://example.com/v/1"})

	require.Len(t, messenger.texts, 2)
	assert.Equal(t, "Sorry, I couldn't download the video. Please make sure the URL is correct and try again.", messenger.texts[1])
}

func TestHandleDeliveryErrorStillDeletesFile(t *testing.T) {
	t.Parallel()

	path := writeTempVideo(t, "clip.mp4")
	fetcher := &fakeFetcher{result: fetch.Result{Path: path, SizeBytes: 1000}}
	messenger := &fakeMessenger{videoErr: errors.New("upload rejected")}
	p := New(nil, fetcher, messenger)

	p.Handle(context.Background(), channel.InboundMessage{ChatID: 1, Text: "https://example.com/v/1"})

	require.Len(t, messenger.texts, 2)
	assert.Equal(t, "Sorry, something went wrong while sending the video. Please try again later.", messenger.texts[1])

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file must be deleted even when delivery fails")
}

func TestHandleMissingFileAtDeliveryIsReported(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{result: fetch.Result{Path: filepath.Join(t.TempDir(), "gone.mp4"), SizeBytes: 1000}}
	messenger := &fakeMessenger{}
	p := New(nil, fetcher, messenger)

	p.Handle(context.Background(), channel.InboundMessage{ChatID: 1, Text: "https://example.com/v/1"})

	require.Len(t, messenger.texts, 2)
	assert.Equal(t, "Sorry, something went wrong while sending the video. Please try again later.", messenger.texts[1])
}

func TestHandleSanitizesDocumentFilename(t *testing.T) {
	t.Parallel()

	path := writeTempVideo(t, `weird?name.mp4`)
	fetcher := &fakeFetcher{result: fetch.Result{Path: path, SizeBytes: 80_000_000}}
	messenger := &fakeMessenger{}
	p := New(nil, fetcher, messenger)

	p.Handle(context.Background(), channel.InboundMessage{ChatID: 1, Text: "https://example.com/v/1"})

	require.Len(t, messenger.documents, 1)
	assert.Equal(t, "weird_name.mp4", messenger.documents[0].name)
}

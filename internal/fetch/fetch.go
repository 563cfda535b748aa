// Package fetch drives yt-dlp to resolve a URL to exactly one local media
// file under the shared temp directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

var (
	// ErrExtraction indicates a recognized failure reported by the
	// extraction subsystem: source unavailable, unsupported site, network
	// or access error.
	ErrExtraction = errors.New("media extraction failed")
	// ErrNoFileProduced indicates the extractor reported completion but no
	// output file could be located by any candidate path.
	ErrNoFileProduced = errors.New("no output file produced")
)

// alternateExtensions are container formats yt-dlp may emit when it renames
// the output during merge, probed in order when the reported path is missing.
var alternateExtensions = []string{".mp4", ".mkv", ".webm", ".m4a"}

// outputTemplate caps the title at 64 characters; yt-dlp sanitizes the title
// itself, so same-title collisions in the shared temp dir remain possible and
// are accepted.
const outputTemplate = "%(title).64s.%(ext)s"

// Result describes a successfully fetched file. The caller owns the file and
// is responsible for deleting it.
type Result struct {
	Path      string
	SizeBytes int64
}

// Fetcher downloads single media items with a fixed policy: best combined
// video+audio streams, no playlist expansion, merged into one mp4 container.
type Fetcher struct {
	logger  *slog.Logger
	tempDir string
}

// New returns a Fetcher writing into tempDir.
func New(log *slog.Logger, tempDir string) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		logger:  log.With(slog.String("component", "fetch")),
		tempDir: tempDir,
	}
}

// Fetch downloads the media item behind url and returns the resolved local
// path and size. It never deletes what it wrote; cleanup is the caller's job.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Result, error) {
	f.logger.Info("downloading", slog.String("url", url))

	cmd := ytdlp.New().
		Format("bestvideo+bestaudio/best").
		NoPlaylist().
		MergeOutputFormat("mp4").
		Quiet().
		NoWarnings().
		NoProgress().
		Output(filepath.Join(f.tempDir, outputTemplate))

	result, err := cmd.Run(ctx, url)
	if err != nil {
		if result != nil {
			// The tool ran and reported a download/extraction error.
			f.logger.Error("extraction failed", slog.String("url", url), slog.Any("error", err))
			return Result{}, fmt.Errorf("%w: %s", ErrExtraction, strings.TrimSpace(err.Error()))
		}
		f.logger.Error("unexpected error running extractor", slog.String("url", url), slog.Any("error", err))
		return Result{}, fmt.Errorf("run extractor: %w", err)
	}

	reported, err := reportedFilename(result)
	if err != nil {
		f.logger.Error("no filename in extractor output", slog.String("url", url), slog.Any("error", err))
		return Result{}, ErrNoFileProduced
	}
	path, ok := resolveOutputPath(reported)
	if !ok {
		f.logger.Error("output file not found", slog.String("url", url), slog.String("reported", reported))
		return Result{}, ErrNoFileProduced
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat output file: %w", err)
	}
	f.logger.Info("download complete",
		slog.String("path", path),
		slog.Int64("size_bytes", info.Size()))
	return Result{Path: path, SizeBytes: info.Size()}, nil
}

func reportedFilename(result *ytdlp.Result) (string, error) {
	info, err := result.GetExtractedInfo()
	if err != nil {
		return "", err
	}
	for _, item := range info {
		if item != nil && item.Filename != nil && *item.Filename != "" {
			return *item.Filename, nil
		}
	}
	return "", errors.New("extracted info carries no filename")
}

// resolveOutputPath returns the on-disk path for a reported output file.
// yt-dlp may rename the file while merging containers, so when the reported
// path does not exist, sibling paths with the same base name and each
// alternate extension are probed in order.
func resolveOutputPath(reported string) (string, bool) {
	if fileExists(reported) {
		return reported, true
	}
	base := trimExt(reported)
	for _, ext := range alternateExtensions {
		alt := base + ext
		if fileExists(alt) {
			return alt, true
		}
	}
	return "", false
}

func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Package janitor periodically removes stale files from the download temp
// directory: partial downloads and merge leftovers from runs that never
// reached cleanup.
package janitor

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepExtensions are the suffixes the extractor can leave behind: finished
// containers plus yt-dlp's partial-download and resume-metadata files.
// Anything else in the directory is not ours and is left alone.
var sweepExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".m4a":  true,
	".part": true,
	".ytdl": true,
}

// Janitor sweeps one directory on a cron schedule. It only deletes regular
// files with extensions the bot itself produces, and only when they are older
// than the retention window, so files belonging to live pipeline runs
// (minutes old at most) and foreign files are never touched.
type Janitor struct {
	logger    *slog.Logger
	dir       string
	retention time.Duration
	schedule  string
	cron      *cron.Cron
}

// New builds a Janitor for dir. Files older than retention are removed on
// each sweep; schedule is a cron expression (e.g. "@hourly").
func New(log *slog.Logger, dir string, retention time.Duration, schedule string) *Janitor {
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{
		logger:    log.With(slog.String("component", "janitor")),
		dir:       dir,
		retention: retention,
		schedule:  schedule,
	}
}

// Start registers the sweep on the cron schedule and runs one sweep
// immediately to clear leftovers from a previous process.
func (j *Janitor) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(j.schedule, j.Sweep); err != nil {
		return err
	}
	j.cron = c
	c.Start()
	go j.Sweep()
	j.logger.Info("started", slog.String("dir", j.dir), slog.String("schedule", j.schedule))
	return nil
}

// Stop halts the schedule. A sweep already in flight finishes on its own.
func (j *Janitor) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}

// Sweep removes stale extractor files from the directory. Errors are logged
// and swallowed; the sweep is best-effort by design of the cleanup contract.
func (j *Janitor) Sweep() {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		j.logger.Warn("read dir failed", slog.String("dir", j.dir), slog.Any("error", err))
		return
	}
	cutoff := time.Now().Add(-j.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !sweepExtensions[filepath.Ext(entry.Name())] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			j.logger.Warn("remove failed", slog.String("path", path), slog.Any("error", err))
			continue
		}
		removed++
	}
	if removed > 0 {
		j.logger.Info("swept stale files", slog.String("dir", j.dir), slog.Int("removed", removed))
	}
}

package storage

// retention.go removes old artifacts on a schedule.
//
// Artifacts are only read back through the download route shortly after an
// upload, so directories older than the configured max age are deleted. The
// sweeper logs failures and keeps running; a failed sweep is retried on the
// next tick.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Sweep deletes artifact directories whose modification time is older than
// maxAge. Entries that are not artifact directories are left alone.
func (s *Store) Sweep(now time.Time, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("storage: read %s: %w", s.dir, err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("storage: remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// RetentionConfig controls the artifact sweeper.
type RetentionConfig struct {
	MaxAge   time.Duration // artifacts older than this are deleted
	Schedule string        // cron expression, e.g. "@hourly" or "*/15 * * * *"
}

// Retention runs Sweep on a cron schedule.
type Retention struct {
	store   *Store
	cfg     RetentionConfig
	cron    *cron.Cron
	onSweep func(removed int)
	stop    sync.Once
}

// NewRetention validates the schedule and prepares the sweeper.
// onSweep, if non-nil, is called with the number of artifacts removed by each run.
func NewRetention(store *Store, cfg RetentionConfig, onSweep func(removed int)) (*Retention, error) {
	r := &Retention{
		store:   store,
		cfg:     cfg,
		cron:    cron.New(),
		onSweep: onSweep,
	}
	if _, err := r.cron.AddFunc(cfg.Schedule, r.run); err != nil {
		return nil, fmt.Errorf("storage: retention schedule %q: %w", cfg.Schedule, err)
	}
	return r, nil
}

// Start runs one sweep immediately, then follows the schedule until ctx is
// cancelled or Stop is called.
func (r *Retention) Start(ctx context.Context) {
	slog.Info("artifact retention started",
		"dir", r.store.Dir(),
		"max_age", r.cfg.MaxAge.String(),
		"schedule", r.cfg.Schedule,
	)

	r.run()
	r.cron.Start()

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
	r.stop.Do(func() { slog.Info("artifact retention stopped") })
}

func (r *Retention) run() {
	start := time.Now()
	removed, err := r.store.Sweep(start, r.cfg.MaxAge)
	if err != nil {
		slog.Error("artifact sweep failed", "error", err, "removed", removed)
	} else {
		slog.Info("artifact sweep completed",
			"removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	if r.onSweep != nil {
		r.onSweep(removed)
	}
}

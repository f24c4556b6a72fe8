// Package janitor periodically removes log rows that have fallen out of the
// duplicate-match window.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"dedup_bot/internal/storage"
)

// Janitor sweeps expired rows from the message log. Rows older than the
// reset period can never match an incoming message again, so removing them
// does not affect detection.
type Janitor struct {
	store     storage.Storage
	retention time.Duration
	log       *slog.Logger
	tick      time.Duration
}

// New creates a Janitor. retention is the detector's reset period.
func New(store storage.Storage, retention time.Duration, log *slog.Logger) *Janitor {
	return &Janitor{
		store:     store,
		retention: retention,
		log:       log,
		tick:      10 * time.Minute,
	}
}

// SetTickInterval overrides the default 10-minute sweep interval.
func (j *Janitor) SetTickInterval(d time.Duration) {
	j.tick = d
}

// Run starts the sweep loop, blocking until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	j.sweep(ctx)

	ticker := time.NewTicker(j.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.retention)
	n, err := j.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		j.log.Error("purge expired messages", "error", err)
		return
	}
	if n > 0 {
		j.log.Info("purged expired messages", "count", n)
	}
}

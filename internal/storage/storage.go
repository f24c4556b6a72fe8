// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"dedup_bot/internal/model"
)

// LogTx is a transaction-scoped view of the message log. All operations run
// inside the transaction opened by Storage.Observe.
type LogTx interface {
	FindMatch(key model.DetectionKey, since time.Time) (*model.LoggedMessage, error)
	Insert(m *model.LoggedMessage) error
	MarkReplied(key model.DetectionKey, since time.Time) (int64, error)
}

// Storage is the interface for all persistence operations.
type Storage interface {
	// Observe runs fn within a single write transaction against the message
	// log, committing on nil and rolling back on error.
	Observe(ctx context.Context, fn func(tx LogTx) error) error

	DeleteByPlatformID(ctx context.Context, platformMessageID string) (int64, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)

	AddExemption(ctx context.Context, senderID string) error
	IsExempt(ctx context.Context, senderID string) (bool, error)

	Close() error
}

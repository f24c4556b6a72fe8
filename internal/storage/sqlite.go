package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"dedup_bot/internal/model"
	"dedup_bot/migrations"
)

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows a single writer; one pooled connection makes concurrent
	// evaluations queue on the store transaction instead of failing with
	// SQLITE_BUSY, and keeps :memory: databases shared across callers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Observe runs fn within a single write transaction against the message log.
func (s *SQLite) Observe(ctx context.Context, fn func(tx LogTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&logTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteByPlatformID removes all log rows for the given platform message id.
func (s *SQLite) DeleteByPlatformID(ctx context.Context, platformMessageID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE platform_message_id = ?`, platformMessageID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// PurgeBefore removes log rows that left the match window at or before cutoff.
func (s *SQLite) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE sent_at <= ?`, cutoff.UnixMicro(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// AddExemption records a pardoned sender. Duplicate entries are harmless.
func (s *SQLite) AddExemption(ctx context.Context, senderID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exempt_users (sender_id) VALUES (?)`, senderID,
	)
	if err != nil {
		return fmt.Errorf("insert exemption: %w", err)
	}
	return nil
}

// IsExempt checks whether a sender has an exemption entry.
func (s *SQLite) IsExempt(ctx context.Context, senderID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exempt_users WHERE sender_id = ?`, senderID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check exemption: %w", err)
	}
	return count > 0, nil
}

type logTx struct {
	ctx context.Context
	tx  *sql.Tx
}

// FindMatch returns the oldest log row matching the full detection key with
// sent_at strictly after since, or nil when no row matches.
//
// `IS` instead of `=` on the nullable columns: NULL must compare equal to
// NULL, and never to an empty string.
func (t *logTx) FindMatch(key model.DetectionKey, since time.Time) (*model.LoggedMessage, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT id, platform_message_id, sender_id, sender_name, kind, normalized_text, media_key, sent_at, replied
		 FROM messages
		 WHERE kind = ? AND sender_id = ? AND normalized_text IS ? AND media_key IS ? AND sent_at > ?
		 ORDER BY id LIMIT 1`,
		string(key.Kind), key.SenderID, key.NormalizedText, key.MediaKey, since.UnixMicro(),
	)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// Insert appends a new log row and populates its ID.
func (t *logTx) Insert(m *model.LoggedMessage) error {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO messages (platform_message_id, sender_id, sender_name, kind, normalized_text, media_key, sent_at, replied)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PlatformMessageID, m.SenderID, m.SenderName, string(m.Kind),
		m.NormalizedText, m.MediaKey, m.SentAt.UnixMicro(), boolToInt(m.Replied),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	return nil
}

// MarkReplied flags all in-window rows matching the full detection key and
// returns the number of rows updated. The tuple conditions give the update
// compare-and-set semantics under concurrent evaluations.
func (t *logTx) MarkReplied(key model.DetectionKey, since time.Time) (int64, error) {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE messages SET replied = 1
		 WHERE kind = ? AND sender_id = ? AND normalized_text IS ? AND media_key IS ? AND sent_at > ?`,
		string(key.Kind), key.SenderID, key.NormalizedText, key.MediaKey, since.UnixMicro(),
	)
	if err != nil {
		return 0, fmt.Errorf("mark replied: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanMessage(row scannable) (*model.LoggedMessage, error) {
	var m model.LoggedMessage
	var kind string
	var text, media sql.NullString
	var sentAt int64
	var replied int
	err := row.Scan(&m.ID, &m.PlatformMessageID, &m.SenderID, &m.SenderName,
		&kind, &text, &media, &sentAt, &replied)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}
	m.Kind = model.MessageKind(kind)
	if text.Valid {
		m.NormalizedText = &text.String
	}
	if media.Valid {
		m.MediaKey = &media.String
	}
	m.SentAt = time.UnixMicro(sentAt).UTC()
	m.Replied = replied == 1
	return &m, nil
}

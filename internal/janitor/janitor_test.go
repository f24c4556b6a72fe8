package janitor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dedup_bot/internal/model"
	"dedup_bot/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedMessage(t *testing.T, s *storage.SQLite, platformID string, sentAt time.Time) {
	t.Helper()
	text := "hello"
	m := &model.LoggedMessage{
		PlatformMessageID: platformID,
		SenderID:          "500",
		Kind:              model.KindText,
		NormalizedText:    &text,
		SentAt:            sentAt,
	}
	err := s.Observe(context.Background(), func(tx storage.LogTx) error {
		return tx.Insert(m)
	})
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
}

// rowExists probes for a row via DeleteByPlatformID, which reports the number
// of rows it removed.
func rowExists(t *testing.T, s *storage.SQLite, platformID string) bool {
	t.Helper()
	n, err := s.DeleteByPlatformID(context.Background(), platformID)
	if err != nil {
		t.Fatalf("probe row: %v", err)
	}
	return n > 0
}

func TestSweepPurgesExpiredRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	seedMessage(t, s, "old", now.Add(-time.Hour))
	seedMessage(t, s, "edge", now.Add(-5*time.Minute))
	seedMessage(t, s, "fresh", now.Add(-time.Minute))

	j := New(s, 5*time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	j.sweep(ctx)

	if diff := cmp.Diff(false, rowExists(t, s, "old")); diff != "" {
		t.Errorf("old row (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(false, rowExists(t, s, "edge")); diff != "" {
		t.Errorf("edge row (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(true, rowExists(t, s, "fresh")); diff != "" {
		t.Errorf("fresh row (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestStore(t)
	j := New(s, 5*time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	j.SetTickInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

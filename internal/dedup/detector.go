// Package dedup implements the duplicate-message detector and the reaction
// policy applied to its verdicts.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dedup_bot/internal/model"
	"dedup_bot/internal/storage"
)

// ErrOracleUnavailable reports that the admin-set lookup failed. The
// evaluation is aborted without a verdict: exemption status is indeterminate
// and deleting under uncertainty is not safe.
var ErrOracleUnavailable = errors.New("admin oracle unavailable")

// AdminOracle returns the current admin set for a chat.
type AdminOracle interface {
	GetAdminIDs(ctx context.Context, chatID int64) (map[string]struct{}, error)
}

// Outcome classifies one evaluation.
type Outcome int

// Evaluation outcomes.
const (
	OutcomeExempt Outcome = iota
	OutcomeRecorded
	OutcomeDuplicateFirstWarning
	OutcomeDuplicateAlreadyWarned
)

// String returns a log-friendly outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeExempt:
		return "exempt"
	case OutcomeRecorded:
		return "recorded"
	case OutcomeDuplicateFirstWarning:
		return "duplicate_first_warning"
	case OutcomeDuplicateAlreadyWarned:
		return "duplicate_already_warned"
	default:
		return "unknown"
	}
}

// IsDuplicate reports whether the outcome calls for moderation.
func (o Outcome) IsDuplicate() bool {
	return o == OutcomeDuplicateFirstWarning || o == OutcomeDuplicateAlreadyWarned
}

// Incoming describes one message to be evaluated.
type Incoming struct {
	ChatID            int64
	PlatformMessageID string
	SenderID          string
	SenderName        string
	Kind              model.MessageKind
	NormalizedText    *string
	MediaKey          *string
}

// Verdict is the immutable result of one evaluation. For duplicate outcomes
// OriginalMessageID identifies the first in-window sighting of the tuple.
// The verdict is a snapshot taken inside the evaluation's transaction; the
// store is never re-read after the replied flag is flipped.
type Verdict struct {
	Outcome           Outcome
	SenderID          string
	SenderName        string
	OriginalMessageID string
}

// Detector decides whether an incoming message duplicates a recent one from
// the same sender.
type Detector struct {
	store       storage.Storage
	oracle      AdminOracle
	resetPeriod time.Duration
	log         *slog.Logger
	now         func() time.Time
}

// NewDetector creates a Detector. resetPeriod is the trailing window inside
// which a prior message is eligible to match.
func NewDetector(store storage.Storage, oracle AdminOracle, resetPeriod time.Duration, log *slog.Logger) *Detector {
	return &Detector{
		store:       store,
		oracle:      oracle,
		resetPeriod: resetPeriod,
		log:         log,
		now:         time.Now,
	}
}

// SetNow overrides the clock (useful for testing window boundaries).
func (d *Detector) SetNow(now func() time.Time) {
	d.now = now
}

// Evaluate classifies the incoming message and records it in the log.
//
// Exempt senders (pardoned or chat admins) produce no store writes. For all
// others the match query and the insert-or-mark mutation run inside a single
// store transaction, so two racing duplicates of the same tuple converge to
// exactly one recorded row.
func (d *Detector) Evaluate(ctx context.Context, in Incoming) (Verdict, error) {
	exempt, err := d.isExempt(ctx, in)
	if err != nil {
		return Verdict{}, err
	}
	if exempt {
		return Verdict{Outcome: OutcomeExempt, SenderID: in.SenderID, SenderName: in.SenderName}, nil
	}

	now := d.now().UTC()
	windowStart := now.Add(-d.resetPeriod)
	key := model.DetectionKey{
		Kind:           in.Kind,
		SenderID:       in.SenderID,
		NormalizedText: in.NormalizedText,
		MediaKey:       in.MediaKey,
	}

	verdict := Verdict{SenderID: in.SenderID, SenderName: in.SenderName}
	err = d.store.Observe(ctx, func(tx storage.LogTx) error {
		match, err := tx.FindMatch(key, windowStart)
		if err != nil {
			return err
		}

		switch {
		case match == nil:
			m := &model.LoggedMessage{
				PlatformMessageID: in.PlatformMessageID,
				SenderID:          in.SenderID,
				SenderName:        in.SenderName,
				Kind:              in.Kind,
				NormalizedText:    in.NormalizedText,
				MediaKey:          in.MediaKey,
				SentAt:            now,
			}
			if err := tx.Insert(m); err != nil {
				return err
			}
			verdict.Outcome = OutcomeRecorded

		case !match.Replied:
			if _, err := tx.MarkReplied(key, windowStart); err != nil {
				return err
			}
			verdict.Outcome = OutcomeDuplicateFirstWarning
			verdict.OriginalMessageID = match.PlatformMessageID

		default:
			verdict.Outcome = OutcomeDuplicateAlreadyWarned
			verdict.OriginalMessageID = match.PlatformMessageID
		}
		return nil
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("evaluate message: %w", err)
	}

	d.log.Debug("evaluated message",
		"outcome", verdict.Outcome.String(),
		"sender_id", in.SenderID,
		"kind", string(in.Kind),
		"original_id", verdict.OriginalMessageID,
	)
	return verdict, nil
}

func (d *Detector) isExempt(ctx context.Context, in Incoming) (bool, error) {
	pardoned, err := d.store.IsExempt(ctx, in.SenderID)
	if err != nil {
		return false, fmt.Errorf("check exemption: %w", err)
	}
	if pardoned {
		return true, nil
	}

	admins, err := d.oracle.GetAdminIDs(ctx, in.ChatID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	_, isAdmin := admins[in.SenderID]
	return isAdmin, nil
}

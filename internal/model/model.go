// Package model defines the domain types used across the application.
package model

import "time"

// MessageKind classifies the payload of an observed message.
type MessageKind string

// Supported message kinds.
const (
	KindText      MessageKind = "text"
	KindPhoto     MessageKind = "photo"
	KindVideo     MessageKind = "video"
	KindAnimation MessageKind = "animation"
)

// IsMedia reports whether the kind carries a media payload.
func (k MessageKind) IsMedia() bool {
	return k == KindPhoto || k == KindVideo || k == KindAnimation
}

// LoggedMessage is one observed, non-exempt message in the log.
//
// NormalizedText and MediaKey are nil when absent: a media message without
// a caption is distinct from one with an empty caption, and text messages
// carry no media key.
type LoggedMessage struct {
	ID                int64
	PlatformMessageID string
	SenderID          string
	SenderName        string
	Kind              MessageKind
	NormalizedText    *string
	MediaKey          *string
	SentAt            time.Time
	Replied           bool
}

// Key returns the detection key of the message.
func (m *LoggedMessage) Key() DetectionKey {
	return DetectionKey{
		Kind:           m.Kind,
		SenderID:       m.SenderID,
		NormalizedText: m.NormalizedText,
		MediaKey:       m.MediaKey,
	}
}

// DetectionKey is the tuple compared for duplicate matching.
type DetectionKey struct {
	Kind           MessageKind
	SenderID       string
	NormalizedText *string
	MediaKey       *string
}

// ExemptUser is one pardoned sender. Duplicate entries for the same sender
// are harmless; membership is existence-based.
type ExemptUser struct {
	ID       int64
	SenderID string
}

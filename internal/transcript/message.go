// Package transcript models the raw, append-only message feed produced by an
// agent run and provides storage backends for it. Records are immutable once
// written; a newer record with the same ID replaces the older one wholesale.
package transcript

import (
	"context"
	"time"
)

// Kind identifies who or what produced a raw message.
type Kind string

const (
	KindUser         Kind = "user"
	KindAssistant    Kind = "assistant"
	KindToolResult   Kind = "toolResult"
	KindStatusMarker Kind = "statusMarker"
)

// RawMessage is a single transcript record as delivered by the transport.
// ContentText may carry inline XML-encoded tool invocations; MetadataText is
// a JSON document that may carry native-encoded tool calls or a tool result.
type RawMessage struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	Kind         Kind      `json:"kind"`
	ContentText  string    `json:"content_text,omitempty"`
	MetadataText string    `json:"metadata_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Sequence     int64     `json:"sequence"`
}

// Before reports whether m sorts ahead of other: CreatedAt first, with the
// transport-assigned Sequence as the tie break.
func (m RawMessage) Before(other RawMessage) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.Sequence < other.Sequence
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// Service provides transcript storage. Put is an idempotent upsert keyed by
// message ID; delivering the same record twice leaves the store unchanged.
type Service interface {
	Put(ctx context.Context, msg RawMessage) error
	List(ctx context.Context, threadID string) ([]RawMessage, error)
	DeleteThread(ctx context.Context, threadID string) error
}

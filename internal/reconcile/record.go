// Package reconcile maintains the authoritative, order-stable list of tool
// calls reconstructed from a transcript feed. Events may arrive duplicated or
// out of order (a history backfill racing a live subscription); applying them
// is idempotent and commutative with respect to duplicate delivery, so any
// interleaving converges to the same list.
package reconcile

import (
	"maps"
	"time"

	"toolscope/internal/parse"
)

// Status is the per-record state machine. Streaming -> Completed is the only
// transition; a record whose result never arrives stays Streaming forever,
// which is a valid terminal state rather than an error.
type Status string

const (
	StatusStreaming Status = "streaming"
	StatusCompleted Status = "completed"
)

// Result is the outcome attached to a completed call. A tool that ran and
// reported failure is still Completed, with Success=false.
type Result struct {
	Success bool
	Output  any
	Error   string
}

// Record is the unit the engine produces: one tool invocation, from first
// observed fragment through (optionally) its result.
type Record struct {
	ID             string
	FunctionName   string
	Arguments      map[string]any
	Source         parse.Source
	Status         Status
	Result         *Result
	OwnerMessageID string
	FirstSeenAt    time.Time
	ResolvedAt     *time.Time
}

// Completed reports whether the record reached its terminal resolved state.
func (r Record) Completed() bool { return r.Status == StatusCompleted }

// clone returns a copy safe to hand to readers: the engine keeps mutating
// its own records while a call is streaming.
func (r Record) clone() Record {
	out := r
	out.Arguments = maps.Clone(r.Arguments)
	if r.Result != nil {
		res := *r.Result
		out.Result = &res
	}
	if r.ResolvedAt != nil {
		ts := *r.ResolvedAt
		out.ResolvedAt = &ts
	}
	return out
}

// Package feed bridges the transcript transport and the reconciliation
// engine: a one-shot history fetch and a continuous live subscription both
// funnel into the same engine, in whatever order they race. Convergence is
// the engine's job; the feed only translates records into events.
package feed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"toolscope/internal/parse"
	"toolscope/internal/pubsub"
	"toolscope/internal/reconcile"
	"toolscope/internal/transcript"
)

// HistorySource is the backfill half of the transport.
type HistorySource interface {
	List(ctx context.Context, threadID string) ([]transcript.RawMessage, error)
}

// Feed drives one reconciliation session.
type Feed struct {
	sessionID string
	engine    *reconcile.Engine
	history   HistorySource
	live      pubsub.Subscriber[transcript.RawMessage]
}

// New wires a feed. Either history or live may be nil (replay-only or
// tail-only sessions).
func New(engine *reconcile.Engine, history HistorySource, live pubsub.Subscriber[transcript.RawMessage]) *Feed {
	return &Feed{
		sessionID: uuid.NewString(),
		engine:    engine,
		history:   history,
		live:      live,
	}
}

// SessionID identifies this reconciliation session.
func (f *Feed) SessionID() string { return f.sessionID }

// Run backfills history and then consumes the live subscription until ctx is
// done or the live stream closes. The subscription is opened before the
// backfill so no record can fall between the two; records delivered by both
// paths are absorbed by the engine's idempotent upsert.
func (f *Feed) Run(ctx context.Context, threadID string) error {
	var liveCh <-chan pubsub.Event[transcript.RawMessage]
	if f.live != nil {
		liveCh = f.live.Subscribe(ctx)
	}

	if err := f.Backfill(ctx, threadID); err != nil {
		return err
	}
	if liveCh == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-liveCh:
			if !ok {
				return nil
			}
			if evt.Type == pubsub.ResetEvent {
				// Producer replayed its state; re-deliver history. Replay
				// never duplicates list entries.
				if err := f.Backfill(ctx, threadID); err != nil {
					return err
				}
				continue
			}
			f.ApplyMessage(threadID, evt.Payload)
		}
	}
}

// Backfill fetches and applies the full history for threadID.
func (f *Feed) Backfill(ctx context.Context, threadID string) error {
	if f.history == nil {
		return nil
	}
	msgs, err := f.history.List(ctx, threadID)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	for _, msg := range msgs {
		f.ApplyMessage(threadID, msg)
	}
	return nil
}

// ApplyMessage parses one raw record and applies the resulting events.
// Records for other threads are ignored; an empty threadID accepts all.
func (f *Feed) ApplyMessage(threadID string, msg transcript.RawMessage) {
	if threadID != "" && msg.ThreadID != "" && msg.ThreadID != threadID {
		return
	}
	parsed := parse.ParseMessage(msg)

	events := make([]reconcile.Event, 0, len(parsed.Calls)+1)
	for _, call := range parsed.Calls {
		events = append(events, reconcile.CallObserved{
			OwnerMessageID: parsed.OwnerMessageID,
			Call:           call,
			ObservedAt:     msg.CreatedAt,
		})
	}
	if parsed.Result != nil {
		events = append(events, reconcile.ResultObserved{
			Result:     *parsed.Result,
			ObservedAt: msg.CreatedAt,
		})
	}
	switch parsed.AgentStatus {
	case "running":
		events = append(events, reconcile.AgentRunningChanged{Running: true})
	case "stopped":
		events = append(events, reconcile.AgentRunningChanged{Running: false})
	}
	f.engine.Apply(events...)
}

package reconcile

import (
	"time"

	"toolscope/internal/parse"
)

// Event is one input to the engine. Events are applied strictly in the order
// delivered, one at a time.
type Event interface{ isEvent() }

// CallObserved upserts a tool call: a new record is appended for an unseen
// id, an existing record absorbs the arguments (streaming merge).
type CallObserved struct {
	OwnerMessageID string
	Call           parse.Call
	// ObservedAt stamps FirstSeenAt for a new record; zero means now.
	ObservedAt time.Time
}

// ResultObserved resolves the record matching the result's tool_call_id, or
// is buffered if that call has not been observed yet.
type ResultObserved struct {
	Result     parse.ResultPayload
	ObservedAt time.Time
}

// AgentRunningChanged reflects the run's activity transitions; stopping the
// agent re-arms cursor follow mode.
type AgentRunningChanged struct {
	Running bool
}

func (CallObserved) isEvent()        {}
func (ResultObserved) isEvent()      {}
func (AgentRunningChanged) isEvent() {}

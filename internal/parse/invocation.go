package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"toolscope/internal/transcript"
)

// Source records which wire encoding a call arrived in.
type Source string

const (
	SourceNative Source = "native"
	SourceXML    Source = "xml"
)

// Call is a normalized tool invocation, the single shape both encodings
// resolve to.
type Call struct {
	ID           string
	FunctionName string
	Arguments    map[string]any
	Source       Source
	// Complete is false for a legacy invocation whose tags have not all
	// closed yet; native calls are always complete once present in metadata.
	Complete bool
}

// ResultPayload is a completed tool result lifted from a toolResult message.
type ResultPayload struct {
	ToolCallID   string
	FunctionName string
	Success      bool
	Output       any
	Error        string
}

// ParsedMessage is the outcome of parsing one raw transcript record: any
// number of tool calls, at most one tool result, and an optional agent
// status transition. Unparseable content yields the zero value rather than
// an error; a live viewer prefers a temporarily incomplete view.
type ParsedMessage struct {
	OwnerMessageID string
	Calls          []Call
	Result         *ResultPayload
	AgentStatus    string
}

// CanonicalName maps both spellings of a tool name onto one comparison key:
// lowercase with dashes and spaces collapsed to underscores, so the native
// "read_file" and the legacy "read-file" compare equal.
func CanonicalName(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	trimmed = strings.ReplaceAll(trimmed, "-", "_")
	return strings.ReplaceAll(trimmed, " ", "_")
}

// SynthesizeID builds the deterministic id for a legacy-encoded call from its
// owning message, canonical function name, and ordinal within that message.
// Re-parsing the same message always reproduces the same id.
func SynthesizeID(ownerMessageID, functionName string, ordinal int) string {
	return fmt.Sprintf("xml:%s:%s:%d", ownerMessageID, CanonicalName(functionName), ordinal)
}

// ParseMessage resolves a raw transcript record into the tagged union of
// native calls, legacy calls, a tool result, or a status transition,
// dispatching on which fields are actually present.
func ParseMessage(msg transcript.RawMessage) ParsedMessage {
	parsed := ParsedMessage{OwnerMessageID: msg.ID}

	switch msg.Kind {
	case transcript.KindAssistant:
		parsed.Calls = append(parsed.Calls, nativeCalls(msg)...)
		parsed.Calls = append(parsed.Calls, legacyCalls(msg)...)
	case transcript.KindToolResult:
		parsed.Result = resultPayload(msg.MetadataText)
	case transcript.KindStatusMarker:
		parsed.AgentStatus = gjson.Get(msg.MetadataText, "agent_status").String()
	}
	return parsed
}

func nativeCalls(msg transcript.RawMessage) []Call {
	entries := gjson.Get(msg.MetadataText, "tool_calls")
	if !entries.IsArray() {
		return nil
	}
	var calls []Call
	entries.ForEach(func(_, entry gjson.Result) bool {
		name := entry.Get("function_name").String()
		if name == "" {
			return true
		}
		id := strings.TrimSpace(entry.Get("tool_call_id").String())
		if id == "" {
			// A blank transport id falls back to the deterministic scheme
			// so replaying the message cannot mint a second record.
			id = SynthesizeID(msg.ID, name, len(calls))
		}
		calls = append(calls, Call{
			ID:           id,
			FunctionName: name,
			Arguments:    nativeArguments(entry.Get("arguments")),
			Source:       SourceNative,
			Complete:     true,
		})
		return true
	})
	return calls
}

// nativeArguments accepts either an already structured object or a JSON
// string needing one parse attempt. Anything that fails to parse (common
// mid-stream) becomes an empty map, never an error.
func nativeArguments(args gjson.Result) map[string]any {
	raw := args.Raw
	if args.Type == gjson.String {
		raw = args.String()
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

func legacyCalls(msg transcript.RawMessage) []Call {
	invocations := ExtractInvocations(msg.ContentText)
	if len(invocations) == 0 {
		return nil
	}
	ordinals := map[string]int{}
	calls := make([]Call, 0, len(invocations))
	for _, inv := range invocations {
		key := CanonicalName(inv.FunctionName)
		ordinal := ordinals[key]
		ordinals[key] = ordinal + 1
		calls = append(calls, Call{
			ID:           SynthesizeID(msg.ID, inv.FunctionName, ordinal),
			FunctionName: inv.FunctionName,
			Arguments:    CoerceArguments(inv.RawParameters),
			Source:       SourceXML,
			Complete:     inv.IsComplete,
		})
	}
	return calls
}

func resultPayload(metadata string) *ResultPayload {
	id := strings.TrimSpace(gjson.Get(metadata, "tool_call_id").String())
	if id == "" {
		return nil
	}
	result := gjson.Get(metadata, "result")
	return &ResultPayload{
		ToolCallID:   id,
		FunctionName: gjson.Get(metadata, "function_name").String(),
		Success:      result.Get("success").Bool(),
		Output:       result.Get("output").Value(),
		Error:        result.Get("error").String(),
	}
}

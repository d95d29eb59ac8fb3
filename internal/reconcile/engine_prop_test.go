package reconcile

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"toolscope/internal/parse"
)

// genEvents produces small event streams over a fixed pool of call ids, with
// results allowed to reference calls that never appear.
func genEvents() gopter.Gen {
	ids := []string{"tc-0", "tc-1", "tc-2", "tc-3"}
	names := []string{"bash", "web-search", "read_file"}

	genEvent := gen.IntRange(0, len(ids)*2-1).Map(func(n int) Event {
		id := ids[n%len(ids)]
		if n < len(ids) {
			return CallObserved{
				OwnerMessageID: "m-" + id,
				Call: parse.Call{
					ID:           id,
					FunctionName: names[n%len(names)],
					Arguments:    map[string]any{"seq": fmt.Sprint(n)},
					Source:       parse.SourceNative,
					Complete:     true,
				},
			}
		}
		return ResultObserved{Result: parse.ResultPayload{
			ToolCallID: id,
			Success:    n%2 == 0,
			Output:     fmt.Sprint(n),
		}}
	})
	return gen.SliceOf(genEvent)
}

func applyAll(events []Event) []Record {
	e := New(WithClock(testClock))
	defer e.Close()
	for _, evt := range events {
		e.Apply(evt)
	}
	return e.ToolCalls()
}

func TestEngineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("replaying the whole stream changes nothing", prop.ForAll(
		func(events []Event) bool {
			e := New(WithClock(testClock))
			defer e.Close()
			e.Apply(events...)
			before := e.ToolCalls()
			e.Apply(events...)
			after := e.ToolCalls()
			if len(before) != len(after) {
				return false
			}
			for i := range before {
				if before[i].ID != after[i].ID || before[i].Status != after[i].Status {
					return false
				}
			}
			return true
		},
		genEvents(),
	))

	properties.Property("duplicating any single event preserves the list", prop.ForAll(
		func(events []Event, at int) bool {
			if len(events) == 0 {
				return true
			}
			at = at % len(events)
			doubled := make([]Event, 0, len(events)+1)
			doubled = append(doubled, events[:at+1]...)
			doubled = append(doubled, events[at])
			doubled = append(doubled, events[at+1:]...)

			plain := applyAll(events)
			withDup := applyAll(doubled)
			if len(plain) != len(withDup) {
				return false
			}
			for i := range plain {
				if plain[i].ID != withDup[i].ID || plain[i].Status != withDup[i].Status {
					return false
				}
			}
			return true
		},
		genEvents(),
		gen.IntRange(0, 1<<20),
	))

	properties.Property("status never regresses and ids never repeat", prop.ForAll(
		func(events []Event) bool {
			e := New(WithClock(testClock))
			defer e.Close()
			completed := map[string]bool{}
			for _, evt := range events {
				e.Apply(evt)
				seen := map[string]bool{}
				for _, rec := range e.ToolCalls() {
					if seen[rec.ID] {
						return false
					}
					seen[rec.ID] = true
					if completed[rec.ID] && !rec.Completed() {
						return false
					}
					if rec.Completed() {
						completed[rec.ID] = true
					}
				}
			}
			return true
		},
		genEvents(),
	))

	properties.TestingRun(t)
}

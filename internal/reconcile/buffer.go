package reconcile

import "toolscope/internal/parse"

// resultBuffer holds results that arrived before their call, bounded so
// malformed data cannot grow it without limit. Oldest entries are dropped
// first; an evicted result is lost, which is the accepted trade-off.
type resultBuffer struct {
	cap   int
	order []string
	byID  map[string]parse.ResultPayload
}

func newResultBuffer(capacity int) *resultBuffer {
	return &resultBuffer{
		cap:  capacity,
		byID: make(map[string]parse.ResultPayload, capacity),
	}
}

// Put stores the result keyed by its call id and reports how many entries
// were evicted to make room. Re-delivery of a buffered id replaces the
// payload without consuming extra capacity.
func (b *resultBuffer) Put(res parse.ResultPayload) int {
	if _, ok := b.byID[res.ToolCallID]; ok {
		b.byID[res.ToolCallID] = res
		return 0
	}
	evicted := 0
	for len(b.order) >= b.cap {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.byID, oldest)
		evicted++
	}
	b.order = append(b.order, res.ToolCallID)
	b.byID[res.ToolCallID] = res
	return evicted
}

// Take removes and returns the buffered result for id, if any.
func (b *resultBuffer) Take(id string) (parse.ResultPayload, bool) {
	res, ok := b.byID[id]
	if !ok {
		return parse.ResultPayload{}, false
	}
	delete(b.byID, id)
	for i, queued := range b.order {
		if queued == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return res, true
}

func (b *resultBuffer) Len() int { return len(b.order) }

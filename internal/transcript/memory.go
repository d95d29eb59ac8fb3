package transcript

import (
	"context"
	"sort"
	"sync"
)

// InMemoryService keeps transcripts in process memory, for tests and for
// replaying a file without touching the on-disk store.
type InMemoryService struct {
	mu   sync.Mutex
	data map[string]map[string]RawMessage // threadID -> messageID -> record
}

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{data: map[string]map[string]RawMessage{}}
}

func (s *InMemoryService) Put(_ context.Context, msg RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := s.data[msg.ThreadID]
	if thread == nil {
		thread = map[string]RawMessage{}
		s.data[msg.ThreadID] = thread
	}
	thread[msg.ID] = msg
	return nil
}

func (s *InMemoryService) List(_ context.Context, threadID string) ([]RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := s.data[threadID]
	out := make([]RawMessage, 0, len(thread))
	for _, msg := range thread {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *InMemoryService) DeleteThread(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, threadID)
	return nil
}

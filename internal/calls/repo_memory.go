package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu          sync.RWMutex
	calls       map[string]Call
	transcripts map[string][]Message
	scores      map[string]Score
	feedback    map[string][]Feedback
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		calls:       map[string]Call{},
		transcripts: map[string][]Message{},
		scores:      map[string]Score{},
		feedback:    map[string][]Feedback{},
	}
}

func (r *MemoryRepository) Insert(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Call{}
	for _, c := range r.calls {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []Call{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) MarkActive(ctx context.Context, id, conversationID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok || c.Status != StatusReady {
		return ErrNotFound
	}
	c.Status = StatusActive
	c.ConversationID = conversationID
	c.StartedAt = at
	r.calls[id] = c
	return nil
}

func (r *MemoryRepository) MarkAbandoned(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return ErrNotFound
	}
	if c.Status != StatusReady && c.Status != StatusActive {
		return nil
	}
	c.Status = StatusAbandoned
	c.EndedAt = &at
	r.calls[id] = c
	return nil
}

func (r *MemoryRepository) CompleteIfActive(ctx context.Context, id string, durationSeconds int, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return false, ErrNotFound
	}
	if c.Status != StatusActive {
		return false, nil
	}
	c.Status = StatusCompleted
	c.DurationSeconds = durationSeconds
	c.EndedAt = &at
	r.calls[id] = c
	return true, nil
}

func (r *MemoryRepository) SaveTranscript(ctx context.Context, callID string, msgs []Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msgs == nil {
		msgs = []Message{}
	}
	r.transcripts[callID] = msgs
	return nil
}

func (r *MemoryRepository) GetTranscript(ctx context.Context, callID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs, ok := r.transcripts[callID]
	if !ok {
		return []Message{}, nil
	}
	return msgs, nil
}

func (r *MemoryRepository) InsertScore(ctx context.Context, s Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[s.CallID] = s
	return nil
}

func (r *MemoryRepository) GetScore(ctx context.Context, callID string) (Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scores[callID]
	if !ok {
		return Score{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepository) InsertFeedback(ctx context.Context, items []Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range items {
		r.feedback[f.CallID] = append(r.feedback[f.CallID], f)
	}
	return nil
}

func (r *MemoryRepository) ListFeedback(ctx context.Context, callID string) ([]Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.feedback[callID]
	out := make([]Feedback, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimestampMS < out[j].TimestampMS })
	return out, nil
}

func (r *MemoryRepository) CountCalls(ctx context.Context, userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, c := range r.calls {
		if c.UserID != userID || c.Status == StatusAbandoned {
			continue
		}
		if !since.IsZero() && c.CreatedAt.Before(since) {
			continue
		}
		n++
	}
	return n, nil
}

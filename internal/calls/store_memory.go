package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and early development.
type MemoryStore struct {
	mu    sync.Mutex
	byID  map[string]Call
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]Call{}, clock: time.Now}
}

func (s *MemoryStore) Create(ctx context.Context, c Call) error {
	if c.CallID == "" {
		return ErrInvalidCall
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.CallID]; ok {
		return ErrAlreadyExists
	}
	now := s.clock().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.byID[c.CallID] = cloneCall(c)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, callID string) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[callID]
	if !ok {
		return Call{}, ErrNotFound
	}
	return cloneCall(c), nil
}

func (s *MemoryStore) Update(ctx context.Context, c Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.CallID]; !ok {
		return ErrNotFound
	}
	c.UpdatedAt = s.clock().UTC()
	s.byID[c.CallID] = cloneCall(c)
	return nil
}

func (s *MemoryStore) FindByProviderID(ctx context.Context, metaKey, providerCallID string) (Call, error) {
	if metaKey == "" || providerCallID == "" {
		return Call{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if v, ok := c.MetaString(metaKey); ok && v == providerCallID {
			return cloneCall(c), nil
		}
	}
	return Call{}, ErrNotFound
}

func (s *MemoryStore) List(ctx context.Context, from, to time.Time, limit int) ([]Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range s.byID {
		if !from.IsZero() && c.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !c.CreatedAt.Before(to) {
			continue
		}
		out = append(out, cloneCall(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// cloneCall deep-copies metadata so callers cannot mutate stored state.
func cloneCall(c Call) Call {
	if c.Metadata != nil {
		meta := make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			meta[k] = v
		}
		c.Metadata = meta
	}
	return c
}

// Package repository keeps the per-session page controllers.
package repository

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/snnvision/internal/domain/pipeline"
	"github.com/okian/snnvision/pkg/metrics"
)

// Factory builds the controller for a new session.
type Factory func(id string) (*pipeline.Controller, error)

// Store provides access to session controllers.
type Store interface {
	// Get returns the controller for id or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*pipeline.Controller, error)
	// GetOrCreate returns the controller for id, building it with f when
	// missing. The bool reports whether it was created.
	GetOrCreate(ctx context.Context, id string, f Factory) (*pipeline.Controller, bool, error)
	// Delete drops id. Unknown ids are ignored.
	Delete(ctx context.Context, id string)
	// Count returns the number of live sessions.
	Count(ctx context.Context) int
	// Snapshots returns the state of every live session.
	Snapshots(ctx context.Context) []pipeline.Snapshot
}

type entry struct {
	id   string
	ctrl *pipeline.Controller
}

// MemoryStore is a bounded in-memory Store with least-recently-used eviction.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*list.Element
	order   *list.List // front is most recently used
	closed  bool
	evicted uint64

	maxSessions           int
	metricsUpdateInterval time.Duration
	onEvict               func(id string)

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewMemoryStore creates a store and starts its metrics updater, which
// stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]*list.Element),
		order:                 list.New(),
		maxSessions:           10000,
		metricsUpdateInterval: 5 * time.Second,
		stop:                  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Get returns the controller for id and marks it as recently used.
func (s *MemoryStore) Get(ctx context.Context, id string) (*pipeline.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.order.MoveToFront(el)
	return el.Value.(*entry).ctrl, nil
}

// GetOrCreate implements Store.
func (s *MemoryStore) GetOrCreate(ctx context.Context, id string, f Factory) (*pipeline.Controller, bool, error) {
	if id == "" {
		return nil, false, ErrInvalidSession
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false, ErrStoreClosed
	}
	if el, ok := s.byID[id]; ok {
		s.order.MoveToFront(el)
		s.mu.Unlock()
		return el.Value.(*entry).ctrl, false, nil
	}
	ctrl, err := f(id)
	if err != nil {
		s.mu.Unlock()
		return nil, false, fmt.Errorf("create session %s: %w", id, err)
	}
	var evicted []string
	for s.order.Len() >= s.maxSessions {
		evicted = append(evicted, s.evictOldestLocked())
	}
	s.byID[id] = s.order.PushFront(&entry{id: id, ctrl: ctrl})
	n := s.order.Len()
	s.mu.Unlock()

	metrics.UpdateSessionsActive(n)
	for _, e := range evicted {
		metrics.RecordSessionEvicted()
		if s.onEvict != nil {
			s.onEvict(e)
		}
	}
	return ctrl, true, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	if el, ok := s.byID[id]; ok {
		s.order.Remove(el)
		delete(s.byID, id)
	}
	n := s.order.Len()
	s.mu.Unlock()
	metrics.UpdateSessionsActive(n)
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Evicted returns how many sessions were dropped to honor the bound.
func (s *MemoryStore) Evicted() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evicted
}

// Snapshots implements Store. Order is most recently used first.
func (s *MemoryStore) Snapshots(ctx context.Context) []pipeline.Snapshot {
	s.mu.Lock()
	ctrls := make([]*pipeline.Controller, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		ctrls = append(ctrls, el.Value.(*entry).ctrl)
	}
	s.mu.Unlock()

	out := make([]pipeline.Snapshot, len(ctrls))
	for i, c := range ctrls {
		out[i] = c.Snapshot()
	}
	return out
}

// Close stops the metrics updater and rejects new sessions.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) evictOldestLocked() string {
	el := s.order.Back()
	e := el.Value.(*entry)
	s.order.Remove(el)
	delete(s.byID, e.id)
	s.evicted++
	return e.id
}

// startMetricsUpdater periodically publishes the session gauge.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				metrics.UpdateSessionsActive(s.Count(ctx))
			}
		}
	}()
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/pipeline"
)

func newController(id string) (*pipeline.Controller, error) {
	return pipeline.New(id, dataset.DVSGesture)
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	if n := store.Count(ctx); n != 0 {
		t.Errorf("expected count 0, got %d", n)
	}

	c, created, err := store.GetOrCreate(ctx, "s1", newController)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected session to be created")
	}
	if c.Session() != "s1" {
		t.Errorf("expected session s1, got %s", c.Session())
	}

	again, created, err := store.GetOrCreate(ctx, "s1", newController)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected existing session to be reused")
	}
	if again != c {
		t.Error("expected the same controller")
	}

	got, err := store.Get(ctx, "s1")
	if err != nil || got != c {
		t.Errorf("expected stored controller, got %v, %v", got, err)
	}

	store.Delete(ctx, "s1")
	store.Delete(ctx, "unknown")
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx)
	defer store.Close()

	if _, _, err := store.GetOrCreate(ctx, "", newController); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}

	boom := errors.New("boom")
	_, _, err := store.GetOrCreate(ctx, "s1", func(string) (*pipeline.Controller, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected factory error, got %v", err)
	}
	if n := store.Count(ctx); n != 0 {
		t.Errorf("failed factory must not store a session, got %d", n)
	}
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	var evicted []string
	store := NewMemoryStore(ctx, WithMaxSessions(2), WithEvictHook(func(id string) { evicted = append(evicted, id) }))
	defer store.Close()

	for _, id := range []string{"a", "b"} {
		if _, _, err := store.GetOrCreate(ctx, id, newController); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// touch a so b becomes the oldest
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.GetOrCreate(ctx, "c", newController); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := store.Count(ctx); n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}
	if _, err := store.Get(ctx, "b"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected b to be evicted, got %v", err)
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("expected evict hook for b, got %v", evicted)
	}
	if store.Evicted() != 1 {
		t.Errorf("expected 1 eviction, got %d", store.Evicted())
	}

	snaps := store.Snapshots(ctx)
	if len(snaps) != 2 || snaps[0].Session != "c" || snaps[1].Session != "a" {
		t.Errorf("unexpected snapshot order: %+v", snaps)
	}
}

func TestMemoryStore_Close(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if _, _, err := store.GetOrCreate(ctx, "s1", newController); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithMaxSessions(50))
	defer store.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("s-%d", (g*100+i)%75)
				if _, _, err := store.GetOrCreate(ctx, id, newController); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				_ = store.Snapshots(ctx)
			}
		}(g)
	}
	wg.Wait()

	if n := store.Count(ctx); n > 50 {
		t.Errorf("store exceeded its bound: %d", n)
	}
}

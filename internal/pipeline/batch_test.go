package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/storeprofile/internal/log"
	"github.com/nao1215/storeprofile/internal/model"
)

// fakeRunner returns canned runs and tracks concurrency.
type fakeRunner struct {
	fail    map[string]bool
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeRunner) Run(ctx context.Context, store string) (*model.Run, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	run := model.NewRun("id-"+store, store)
	if f.fail[store] {
		return run, model.NewStatusError(run.StoreURL+"/products.json", 404)
	}
	return run, nil
}

func TestNewBatchProcessor(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(&fakeRunner{})
	if bp.concurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", bp.concurrency)
	}
	if bp.logger == nil {
		t.Error("expected default logger")
	}

	bp = NewBatchProcessor(&fakeRunner{}, WithConcurrency(2), WithConcurrency(0))
	if bp.concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", bp.concurrency)
	}
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order and isolates failures", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{fail: map[string]bool{"b.example.com": true}}
		bp := NewBatchProcessor(runner, WithBatchLogger(log.Discard()))

		stores := []string{"a.example.com", "b.example.com", "c.example.com"}
		results, err := bp.ProcessBatch(context.Background(), stores)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		for i, r := range results {
			if r.Store != stores[i] {
				t.Errorf("result %d store = %s, want %s", i, r.Store, stores[i])
			}
			if r.Run == nil {
				t.Errorf("result %d has no run", i)
			}
		}
		if results[0].Err != nil || results[2].Err != nil {
			t.Error("healthy stores should succeed")
		}
		if !errors.Is(results[1].Err, model.ErrNotAvailable) {
			t.Errorf("expected failure for b, got %v", results[1].Err)
		}
	})

	t.Run("respects the concurrency limit", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{delay: 20 * time.Millisecond}
		bp := NewBatchProcessor(runner, WithConcurrency(2), WithBatchLogger(log.Discard()))

		stores := []string{"a", "b", "c", "d", "e", "f"}
		if _, err := bp.ProcessBatch(context.Background(), stores); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := runner.maxSeen.Load(); got > 2 {
			t.Errorf("max concurrent runs = %d, want <= 2", got)
		}
	})

	t.Run("cancelled batch reports every store", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(&fakeRunner{}, WithConcurrency(1), WithBatchLogger(log.Discard()))
		results, err := bp.ProcessBatch(ctx, []string{"a", "b"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		for _, r := range results {
			if r.Store == "" || r.Err == nil {
				t.Errorf("unexpected result: %+v", r)
			}
		}
	})
}

func TestProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen = map[int]string{}
	)
	bp := NewBatchProcessor(&fakeRunner{}, WithBatchLogger(log.Discard()))
	err := bp.ProcessBatchWithCallback(context.Background(), []string{"a", "b", "c"}, func(r BatchResult, i int) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = r.Store
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Errorf("unexpected callbacks: %v", seen)
	}
}

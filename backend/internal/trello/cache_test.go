package trello

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNameCache_FetchOncePerKey(t *testing.T) {
	cache := NewNameCache()
	var calls int32

	fetch := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "Product", nil
	}

	for i := 0; i < 5; i++ {
		name, err := cache.Resolve(BoardKey("board1"), fetch)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if name != "Product" {
			t.Errorf("expected Product, got %q", name)
		}
	}

	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
}

func TestNameCache_ConcurrentResolve(t *testing.T) {
	cache := NewNameCache()
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Resolve(ListKey("list1"), func() (string, error) {
				atomic.AddInt32(&calls, 1)
				return "Done", nil
			})
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected 1 fetch under concurrency, got %d", calls)
	}
}

func TestNameCache_KeysDoNotCollide(t *testing.T) {
	if BoardKey("x") == ListKey("x") {
		t.Error("board and list keys must not collide for the same id")
	}
}

func TestNameCache_ErrorSticks(t *testing.T) {
	cache := NewNameCache()
	var calls int32
	wantErr := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := cache.Resolve(BoardKey("bad"), func() (string, error) {
			atomic.AddInt32(&calls, 1)
			return "", wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected boom, got %v", err)
		}
	}

	if calls != 1 {
		t.Errorf("expected a failed fetch to not be retried, got %d calls", calls)
	}
}

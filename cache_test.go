package spacetravelling

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingGen returns payloads {"n":1}, {"n":2}, ... valid for revalidate.
func countingGen(calls *atomic.Int32, revalidate time.Duration) GenerateFunc {
	return func(context.Context) ([]byte, time.Duration, error) {
		n := calls.Add(1)
		return []byte(fmt.Sprintf(`{"n":%d,"revalidate":%d}`, n, revalidate)), revalidate, nil
	}
}

func TestPageCacheFreshHit(t *testing.T) {
	c := NewPageCache(nil, time.Second, nil)
	var calls atomic.Int32
	gen := countingGen(&calls, time.Hour)

	for i := 0; i < 3; i++ {
		snap, err := c.Get(context.Background(), "/", KindHome, gen, 0)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(snap.Payload) != `{"n":1,"revalidate":3600000000000}` {
			t.Errorf("payload = %s", snap.Payload)
		}
	}
	c.Wait()
	if calls.Load() != 1 {
		t.Errorf("generate calls = %d, want 1", calls.Load())
	}
}

func TestPageCacheStaleServedThenRegenerated(t *testing.T) {
	c := NewPageCache(nil, time.Second, nil)
	clock := time.Date(2021, 3, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	var calls atomic.Int32
	gen := countingGen(&calls, 30*time.Minute)

	if _, err := c.Get(context.Background(), "/post/a/", KindPost, gen, 0); err != nil {
		t.Fatalf("Get: %v", err)
	}

	clock = clock.Add(31 * time.Minute)
	snap, err := c.Get(context.Background(), "/post/a/", KindPost, gen, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.GeneratedAt.After(clock.Add(-31 * time.Minute)) {
		t.Errorf("stale request should get the old snapshot, generated at %v", snap.GeneratedAt)
	}
	c.Wait()

	snap, err = c.Get(context.Background(), "/post/a/", KindPost, gen, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !snap.GeneratedAt.Equal(clock) {
		t.Errorf("GeneratedAt = %v, want regenerated at %v", snap.GeneratedAt, clock)
	}
	if calls.Load() != 2 {
		t.Errorf("generate calls = %d, want 2", calls.Load())
	}
}

func TestPageCachePending(t *testing.T) {
	c := NewPageCache(nil, time.Second, nil)
	release := make(chan struct{})
	gen := func(context.Context) ([]byte, time.Duration, error) {
		<-release
		return []byte(`{}`), 0, nil
	}

	_, err := c.Get(context.Background(), "/post/slow/", KindPost, gen, 10*time.Millisecond)
	if !errors.Is(err, ErrPending) {
		t.Fatalf("err = %v, want ErrPending", err)
	}
	close(release)
	c.Wait()

	snap, err := c.Get(context.Background(), "/post/slow/", KindPost, gen, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Get after generation: %v", err)
	}
	if string(snap.Payload) != `{}` {
		t.Errorf("payload = %s", snap.Payload)
	}
}

func TestPageCacheErrorsAreNotCached(t *testing.T) {
	c := NewPageCache(nil, time.Second, nil)
	boom := errors.New("cms down")
	var calls atomic.Int32
	gen := func(context.Context) ([]byte, time.Duration, error) {
		if calls.Add(1) == 1 {
			return nil, 0, boom
		}
		return []byte(`{}`), time.Hour, nil
	}

	if _, err := c.Get(context.Background(), "/", KindHome, gen, 0); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if _, err := c.Get(context.Background(), "/", KindHome, gen, 0); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("generate calls = %d, want 2", calls.Load())
	}
}

func TestPageCacheSingleFlight(t *testing.T) {
	c := NewPageCache(nil, time.Second, nil)
	release := make(chan struct{})
	var calls atomic.Int32
	gen := func(context.Context) ([]byte, time.Duration, error) {
		calls.Add(1)
		<-release
		return []byte(`{}`), time.Hour, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), "/", KindHome, gen, 0); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("generate calls = %d, want 1", calls.Load())
	}
}

func TestPageCacheLoadsFromStore(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	var calls atomic.Int32
	gen := countingGen(&calls, time.Hour)

	first := NewPageCache(store, time.Second, nil)
	if _, err := first.Get(context.Background(), "/", KindHome, gen, 0); err != nil {
		t.Fatalf("Get: %v", err)
	}
	first.Wait()

	// A new cache over the same store serves the persisted snapshot.
	second := NewPageCache(store, time.Second, nil)
	snap, err := second.Get(context.Background(), "/", KindHome, gen, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second.Wait()
	if calls.Load() != 1 {
		t.Errorf("generate calls = %d, want 1", calls.Load())
	}
	if snap.Kind != KindHome {
		t.Errorf("Kind = %q", snap.Kind)
	}

	if err := second.Invalidate("/"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := second.Get(context.Background(), "/", KindHome, gen, 0); err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("generate calls after invalidate = %d, want 2", calls.Load())
	}
}

func TestResultRoundTripThroughSnapshot(t *testing.T) {
	payload, revalidate, err := encodeResult(StaticResult[PostProps]{
		Props:      PostProps{Post: Post{UID: "a", Data: PostData{Title: "A"}}, ReadingTime: 3},
		Revalidate: 30 * time.Minute,
	}, nil)
	if err != nil {
		t.Fatalf("encodeResult: %v", err)
	}
	if revalidate != 30*time.Minute {
		t.Errorf("revalidate = %v", revalidate)
	}
	res, err := decodeResult[PostProps](Snapshot{Payload: payload})
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if res.Props.Post.UID != "a" || res.Props.ReadingTime != 3 || res.Redirect != nil {
		t.Errorf("result = %+v", res)
	}
}

func TestRedirectResultIsNotKept(t *testing.T) {
	payload, revalidate, err := encodeResult(StaticResult[PostProps]{
		Redirect:   &Redirect{Destination: "/"},
		Revalidate: 30 * time.Minute,
	}, nil)
	if err != nil {
		t.Fatalf("encodeResult: %v", err)
	}
	if revalidate >= 0 {
		t.Errorf("revalidate = %v, want negative", revalidate)
	}
	res, err := decodeResult[PostProps](Snapshot{Payload: payload})
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if res.Redirect == nil || res.Redirect.Destination != "/" || res.Redirect.Permanent {
		t.Errorf("redirect = %+v", res.Redirect)
	}
}

func TestPageCacheDropsUnkeptResults(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	c := NewPageCache(store, time.Second, nil)
	var calls atomic.Int32
	gen := countingGen(&calls, -1)

	for i := 0; i < 3; i++ {
		snap, err := c.Get(context.Background(), fmt.Sprintf("/post/random-%d/", i), KindPost, gen, 0)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(snap.Payload) == 0 {
			t.Error("caller should still receive the payload")
		}
	}
	if _, err := c.Get(context.Background(), "/post/random-0/", KindPost, gen, 0); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c.Wait()

	if calls.Load() != 4 {
		t.Errorf("generate calls = %d, want 4", calls.Load())
	}
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	if n != 0 {
		t.Errorf("memory entries = %d, want 0", n)
	}
	stored, err := store.ListPages("")
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("stored snapshots = %d, want 0", len(stored))
	}
}

func TestPageCacheInvalidateAll(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	var calls atomic.Int32
	gen := countingGen(&calls, time.Hour)

	// One snapshot only in the store, two in memory and store.
	if _, err := NewPageCache(store, time.Second, nil).Get(context.Background(), "/post/old/", KindPost, gen, 0); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c := NewPageCache(store, time.Second, nil)
	for _, path := range []string{"/", "/post/a/"} {
		if _, err := c.Get(context.Background(), path, KindPost, gen, 0); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	c.Wait()

	n, err := c.InvalidateAll()
	if err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	if n != 3 {
		t.Errorf("invalidated = %d, want 3", n)
	}
	stored, err := store.ListPages("")
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("stored snapshots after InvalidateAll = %d", len(stored))
	}
	if _, err := c.Get(context.Background(), "/", KindHome, gen, 0); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls.Load() != 4 {
		t.Errorf("generate calls = %d, want 4", calls.Load())
	}
}

func TestPageCacheGetCancelled(t *testing.T) {
	c := NewPageCache(nil, time.Second, nil)
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Get(ctx, "/", KindHome, countingGen(&calls, time.Hour), 0); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	c.Wait()
	if calls.Load() != 0 {
		t.Errorf("cancelled Get should not generate, got %d calls", calls.Load())
	}
}

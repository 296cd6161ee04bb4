package spacetravelling

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrPending is returned by PageCache.Get when a page without a snapshot is
// still being generated after the wait elapsed.
var ErrPending = errors.New("page generation pending")

// GenerateFunc produces the JSON payload of a page and how long it stays
// fresh. A zero revalidate keeps the snapshot fresh forever. A negative
// revalidate hands the payload to the callers of that run without keeping it.
type GenerateFunc func(ctx context.Context) (payload []byte, revalidate time.Duration, err error)

type cacheEntry struct {
	snap       Snapshot
	revalidate time.Duration
}

type flight struct {
	done chan struct{}
	snap Snapshot
	err  error
}

// PageCache keeps generated page snapshots in memory, backed by an optional
// Store. Stale snapshots are served while a single background regeneration
// per path replaces them.
type PageCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	inflight map[string]*flight
	wg       sync.WaitGroup

	store   *Store
	timeout time.Duration
	logger  Logger
	now     func() time.Time
}

// NewPageCache creates a PageCache. store may be nil; timeout bounds each
// generation run.
func NewPageCache(store *Store, timeout time.Duration, logger Logger) *PageCache {
	return &PageCache{
		entries:  make(map[string]cacheEntry),
		inflight: make(map[string]*flight),
		store:    store,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *PageCache) warnf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warnf(format, args...)
	}
}

// Get returns the snapshot of path. A fresh snapshot is returned as is. A
// stale one is returned while gen runs in the background. Without a snapshot
// gen runs and Get waits up to wait for it (forever when wait is 0),
// returning ErrPending on timeout while generation carries on.
func (c *PageCache) Get(ctx context.Context, path, kind string, gen GenerateFunc, wait time.Duration) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if !ok {
		e, ok = c.loadStored(path)
	}
	if ok {
		if e.revalidate > 0 && c.now().Sub(e.snap.GeneratedAt) >= e.revalidate {
			c.start(path, kind, gen)
		}
		return e.snap, nil
	}

	f := c.start(path, kind, gen)
	var timeout <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-f.done:
		return f.snap, f.err
	case <-timeout:
		return Snapshot{}, ErrPending
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// loadStored promotes a persisted snapshot into memory.
func (c *PageCache) loadStored(path string) (cacheEntry, bool) {
	if c.store == nil {
		return cacheEntry{}, false
	}
	snap, err := c.store.GetPage(path)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.warnf("load snapshot %s: %v", path, err)
		}
		return cacheEntry{}, false
	}
	var meta struct {
		Revalidate time.Duration `json:"revalidate"`
	}
	if err := json.Unmarshal(snap.Payload, &meta); err != nil {
		c.warnf("decode snapshot %s: %v", path, err)
		return cacheEntry{}, false
	}
	e := cacheEntry{snap: snap, revalidate: meta.Revalidate}
	c.mu.Lock()
	if _, ok := c.entries[path]; !ok {
		c.entries[path] = e
	}
	c.mu.Unlock()
	return e, true
}

// start launches gen for path unless a run is already in flight.
func (c *PageCache) start(path, kind string, gen GenerateFunc) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.inflight[path]; ok {
		return f
	}
	f := &flight{done: make(chan struct{})}
	c.inflight[path] = f
	c.wg.Add(1)
	go c.run(path, kind, gen, f)
	return f
}

func (c *PageCache) run(path, kind string, gen GenerateFunc, f *flight) {
	defer c.wg.Done()
	// Runs on behalf of every waiter, so it is not bound to any request.
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	payload, revalidate, err := gen(ctx)
	if err != nil {
		c.warnf("generate %s: %v", path, err)
	}
	snap := Snapshot{Path: path, Kind: kind, Payload: payload, GeneratedAt: c.now()}
	keep := err == nil && revalidate >= 0
	if keep && c.store != nil {
		if serr := c.store.SavePage(snap); serr != nil {
			c.warnf("save snapshot %s: %v", path, serr)
		}
	}

	c.mu.Lock()
	if keep {
		c.entries[path] = cacheEntry{snap: snap, revalidate: revalidate}
	}
	delete(c.inflight, path)
	c.mu.Unlock()

	if err == nil {
		f.snap = snap
	}
	f.err = err
	close(f.done)
}

// Invalidate drops the snapshot of path from memory and from the store.
func (c *PageCache) Invalidate(path string) error {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	return c.store.DeletePage(path)
}

// InvalidateAll drops every snapshot from memory and from the store and
// returns how many paths were dropped.
func (c *PageCache) InvalidateAll() (int, error) {
	paths := make(map[string]struct{})
	c.mu.Lock()
	for path := range c.entries {
		paths[path] = struct{}{}
	}
	c.mu.Unlock()
	if c.store != nil {
		stored, err := c.store.ListPages("")
		if err != nil {
			return 0, err
		}
		for _, snap := range stored {
			paths[snap.Path] = struct{}{}
		}
	}
	for path := range paths {
		if err := c.Invalidate(path); err != nil {
			return 0, err
		}
	}
	return len(paths), nil
}

// Wait blocks until every running generation has finished.
func (c *PageCache) Wait() {
	c.wg.Wait()
}

// encodeResult serializes a generation result for the cache. Redirects are
// not kept, so unknown paths leave nothing behind.
func encodeResult[P any](res StaticResult[P], err error) ([]byte, time.Duration, error) {
	if err != nil {
		return nil, 0, err
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, 0, err
	}
	if res.Redirect != nil {
		return payload, -1, nil
	}
	return payload, res.Revalidate, nil
}

// decodeResult restores a generation result from a snapshot.
func decodeResult[P any](snap Snapshot) (StaticResult[P], error) {
	var res StaticResult[P]
	if err := json.Unmarshal(snap.Payload, &res); err != nil {
		return StaticResult[P]{}, err
	}
	return res, nil
}

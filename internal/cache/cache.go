// Package cache provides a batch-fetching cache for expensive indexable
// resources, primarily seek-and-decode video frames. A miss blocks the
// caller and replaces the whole cache with one contiguous decoded batch;
// sequential accesses near the window edge trigger an asynchronous prefetch
// of the next window in the observed scrub direction.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a contiguous batch of consecutive results keyed by
// absolute index, starting at start. Batches are expensive per call and
// cheap per item: sequential decode amortizes the seek.
type FetchFunc[V any] func(start int) (map[int]V, error)

// Cache holds one decoded batch at a time. The fetch offset keeps a margin
// of already-decoded items behind the requested index so reverse scrubbing
// stays inside the window.
type Cache[V any] struct {
	fetch       FetchFunc[V]
	batchSize   int // items per fetch
	fetchOffset int // where the requested index lands within a fresh batch

	mu      sync.Mutex
	entries map[int]V
	lo, hi  int    // current window bounds, valid when entries is non-empty
	gen     uint64 // bumped on every batch replacement
	last    int    // previously requested index, for direction detection
	forward bool

	group    singleflight.Group
	requests chan prefetchRequest

	startedMu sync.Mutex
	started   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type prefetchRequest struct {
	start int
	gen   uint64
}

// New creates a cache over fetch with the given batch size and fetch offset.
// fetchOffset must satisfy 0 <= fetchOffset < batchSize.
func New[V any](fetch FetchFunc[V], batchSize, fetchOffset int) (*Cache[V], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if fetchOffset < 0 || fetchOffset >= batchSize {
		return nil, fmt.Errorf("fetch offset %d outside [0, %d)", fetchOffset, batchSize)
	}
	return &Cache[V]{
		fetch:       fetch,
		batchSize:   batchSize,
		fetchOffset: fetchOffset,
		forward:     true,
		requests:    make(chan prefetchRequest, 1),
	}, nil
}

// Start launches the prefetch worker. Without Start the cache still serves
// Get correctly; it just never prefetches. Safe to call once.
func (c *Cache[V]) Start(ctx context.Context) error {
	c.startedMu.Lock()
	defer c.startedMu.Unlock()
	if c.started {
		return fmt.Errorf("cache already started")
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.wg.Add(1)
	go c.prefetchLoop(ctx)
	return nil
}

// Stop shuts the prefetch worker down and waits for it. Idempotent.
func (c *Cache[V]) Stop() {
	c.startedMu.Lock()
	defer c.startedMu.Unlock()
	if !c.started {
		return
	}
	c.cancel()
	c.wg.Wait()
	c.started = false
}

// Get returns the payload for index. A hit returns immediately and may
// schedule a prefetch; a miss blocks on a synchronous fetch of the window
// starting at max(0, index-fetchOffset) and replaces the cache contents with
// the returned batch. A fetch failure is surfaced to the caller; the cache
// does not retry.
func (c *Cache[V]) Get(index int) (V, error) {
	c.mu.Lock()
	forward := index >= c.last
	c.last = index
	c.forward = forward

	if v, ok := c.entries[index]; ok {
		req, want := c.coverageGap(index)
		c.mu.Unlock()
		if want {
			c.schedulePrefetch(req)
		}
		return v, nil
	}
	c.mu.Unlock()

	start := index - c.fetchOffset
	if start < 0 {
		start = 0
	}
	batch, err := c.fetchShared(start)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	// Last writer wins over the whole batch; two fetch results are never
	// merged.
	c.replaceLocked(batch)
	v, ok := c.entries[index]
	c.mu.Unlock()
	if !ok {
		var zero V
		return zero, fmt.Errorf("index %d missing from fetched batch starting at %d", index, start)
	}
	return v, nil
}

// Contains reports whether index is currently decoded, without touching the
// scrub direction or scheduling work.
func (c *Cache[V]) Contains(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[index]
	return ok
}

// coverageGap decides, under the lock, whether continued monotonic playback
// from index would soon leave the window, and if so where the next batch
// should start.
func (c *Cache[V]) coverageGap(index int) (prefetchRequest, bool) {
	if len(c.entries) == 0 {
		return prefetchRequest{}, false
	}
	margin := c.fetchOffset
	if margin == 0 {
		margin = 1
	}
	if c.forward && c.hi-index < margin {
		start := c.hi + 1 - c.fetchOffset
		if start < 0 {
			start = 0
		}
		return prefetchRequest{start: start, gen: c.gen}, true
	}
	if !c.forward && index-c.lo < margin {
		start := c.lo - (c.batchSize - c.fetchOffset)
		if start < 0 {
			start = 0
		}
		if start == c.lo {
			return prefetchRequest{}, false
		}
		return prefetchRequest{start: start, gen: c.gen}, true
	}
	return prefetchRequest{}, false
}

func (c *Cache[V]) schedulePrefetch(req prefetchRequest) {
	c.startedMu.Lock()
	started := c.started
	c.startedMu.Unlock()
	if !started {
		return
	}
	select {
	case c.requests <- req:
	default:
		// A prefetch is already queued; the newer window supersedes it on
		// the next edge hit anyway.
	}
}

func (c *Cache[V]) prefetchLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.requests:
			batch, err := c.fetchShared(req.start)
			if err != nil {
				// Prefetch is opportunistic; the miss path will surface
				// the failure if the frames are actually needed.
				continue
			}
			c.mu.Lock()
			if c.gen != req.gen {
				// A synchronous fetch raced ahead; this batch is stale.
				c.mu.Unlock()
				continue
			}
			c.replaceLocked(batch)
			c.mu.Unlock()
		}
	}
}

// fetchShared collapses a synchronous miss and an in-flight prefetch of the
// same window into one underlying fetch.
func (c *Cache[V]) fetchShared(start int) (map[int]V, error) {
	v, err, _ := c.group.Do(strconv.Itoa(start), func() (any, error) {
		return c.fetch(start)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int]V), nil
}

func (c *Cache[V]) replaceLocked(batch map[int]V) {
	c.entries = batch
	c.gen++
	first := true
	for k := range batch {
		if first || k < c.lo {
			c.lo = k
		}
		if first || k > c.hi {
			c.hi = k
		}
		first = false
	}
}

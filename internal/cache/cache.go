// Package cache implements the bounded pixel cache: an LRU of decoded
// frames keyed by (path, resolution level), pulled through the decoder on
// miss. Safe for concurrent use by the owner goroutine and the background
// loader.
package cache

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"

	"seqcache/internal/base"
)

// Key addresses one cached frame. Distinct resolution levels of the same
// path are distinct entries.
type Key struct {
	Path  string
	Level int
}

const (
	// MinCapacity keeps the cache large enough to hold a small window even
	// when callers pass a degenerate capacity.
	MinCapacity = 16
)

func hashKey(k Key) uint32 {
	var d xxhash.Digest
	d.Reset()
	_, _ = d.WriteString(k.Path)
	var lvl [4]byte
	binary.LittleEndian.PutUint32(lvl[:], uint32(k.Level))
	_, _ = d.Write(lvl[:])
	return uint32(d.Sum64())
}

// FrameCache is a capacity-bounded pull-through cache of decoded frames.
// Capacity is counted in frames; eviction is LRU. An evicted frame stays
// valid for any reader still holding it, eviction only drops the cache's
// reference.
type FrameCache struct {
	lru *freelru.SyncedLRU[Key, *base.Frame]

	// Per-key load coordination: at most one decode per key at a time,
	// concurrent requesters wait for the loader's result.
	loads sync.Map // map[Key]*loadState

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	loaded    atomic.Uint64
	failed    atomic.Uint64
}

// loadState coordinates concurrent loads of the same key.
type loadState struct {
	mu      sync.Mutex
	loading bool
	done    chan struct{} // Closed when the load completes
	frame   *base.Frame
	err     error
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits         uint64
	Misses       uint64
	Evictions    uint64
	Loads        uint64
	LoadFailures uint64
}

// New creates a frame cache holding at most capacity frames.
func New(capacity int) *FrameCache {
	capacity = max(capacity, MinCapacity)

	lru, err := freelru.NewSynced[Key, *base.Frame](uint32(capacity), hashKey)
	if err != nil {
		// Capacity is clamped above; freelru only rejects zero capacity.
		panic(err)
	}

	return &FrameCache{lru: lru}
}

// Get retrieves a frame from the cache.
// Returns (frame, true) on hit, (nil, false) on miss.
func (c *FrameCache) Get(key Key) (*base.Frame, bool) {
	frame, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return frame, true
}

// GetOrLoad retrieves a frame or pulls it through load on miss. Concurrent
// calls for the same key share a single load; the load runs without any
// cache lock held. A failed load caches nothing, so the key is retried the
// next time it is requested.
func (c *FrameCache) GetOrLoad(key Key, load func() (*base.Frame, error)) (*base.Frame, error) {
	if frame, ok := c.Get(key); ok {
		return frame, nil
	}

	// LoadOrStore ensures only one loadState exists per key
	stateVal, _ := c.loads.LoadOrStore(key, &loadState{
		done: make(chan struct{}),
	})
	state := stateVal.(*loadState)

	state.mu.Lock()
	if state.loading {
		// Someone else is decoding this key, wait for their result.
		state.mu.Unlock()
		<-state.done
		return state.frame, state.err
	}
	state.loading = true
	state.mu.Unlock()

	// We're the loader. Decode outside all locks (I/O).
	frame, err := load()

	state.mu.Lock()
	state.frame = frame
	state.err = err
	close(state.done)
	state.mu.Unlock()

	if err != nil {
		c.failed.Add(1)
		c.loads.Delete(key)
		return nil, err
	}

	// Publish to the LRU, then retire the coordination state.
	if evicted := c.lru.Add(key, frame); evicted {
		c.evictions.Add(1)
	}
	c.loaded.Add(1)
	c.loads.Delete(key)

	return frame, nil
}

// Contains reports whether key is resident without touching recency.
func (c *FrameCache) Contains(key Key) bool {
	return c.lru.Contains(key)
}

// Len returns the current number of resident frames.
func (c *FrameCache) Len() int {
	return c.lru.Len()
}

// Purge drops every resident frame. Counters are kept.
func (c *FrameCache) Purge() {
	c.lru.Purge()
}

// Stats returns a snapshot of the cache counters.
func (c *FrameCache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Evictions:    c.evictions.Load(),
		Loads:        c.loaded.Load(),
		LoadFailures: c.failed.Load(),
	}
}

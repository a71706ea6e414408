// Package seqcache provides a bounded, prefetching cache of decoded frames
// for an ordered image sequence. Random-access requests are answered from
// memory while a single background loader keeps a sliding window of
// neighboring frames resident.
//
// Two nested windows drive the state machine: the wide prefetch region is
// what the last completed load made resident, the narrow safe region is
// what the coordinator currently trusts. A request outside the safe region
// triggers a new load; a request inside the prefetch region is a hit.
// Keeping the two apart avoids re-triggering a load for every query inside
// a window that is still being filled.
package seqcache

import (
	"sync"

	"github.com/google/uuid"

	"seqcache/internal/base"
	"seqcache/internal/cache"
	"seqcache/internal/sequence"
	"seqcache/internal/window"
)

// SequenceCache serves random-access frame requests for one image sequence
// and prefetches a window around the most recently requested frame.
//
// Request never blocks: it serves from the cache, triggers at most one
// background batch load, or returns an empty Response. Completion of a
// batch is applied on the next public call, so all region bookkeeping runs
// on the caller's goroutine. All methods are safe for concurrent use.
type SequenceCache struct {
	mu sync.Mutex

	dec    base.Decoder
	frames *cache.FrameCache
	seq    *sequence.Index

	extentPrefetch int
	extentSafe     int
	level          int

	// Prefetch state machine. loading gates dispatch: at most one batch is
	// in flight. regionPrefetch is what the last completed load made
	// resident; regionSafe is the trusted window nested inside it. The
	// next* pair is pending while loading and promoted on completion.
	loading        bool
	regionPrefetch window.Region
	regionSafe     window.Region
	nextPrefetch   window.Region
	nextSafe       window.Region

	doneC    chan struct{} // Loader -> owner completion signal, capacity 1
	handledC chan struct{} // Observer notification, capacity 1

	executor Executor
	log      Logger
}

// New creates a SequenceCache pulling frames through dec. The cache starts
// with an empty sequence; call SetSequence before requesting frames.
func New(dec Decoder, options ...Option) *SequenceCache {
	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	opts.extentPrefetch = max(opts.extentPrefetch, 1)
	if opts.extentSafe >= opts.extentPrefetch {
		opts.extentSafe = opts.extentPrefetch - 1
	}
	opts.extentSafe = max(opts.extentSafe, 0)
	if opts.level < 1 {
		opts.level = 1
	}

	return &SequenceCache{
		dec:            dec,
		frames:         cache.New(opts.cacheCapacity),
		seq:            new(sequence.Index),
		extentPrefetch: opts.extentPrefetch,
		extentSafe:     opts.extentSafe,
		level:          opts.level,
		regionPrefetch: window.Empty,
		regionSafe:     window.Empty,
		nextPrefetch:   window.Empty,
		nextSafe:       window.Empty,
		doneC:          make(chan struct{}, 1),
		handledC:       make(chan struct{}, 1),
		executor:       opts.executor,
		log:            opts.logger,
	}
}

// SetSequence rebuilds the frame catalog from paths, probing metadata for
// every entry synchronously. The sequence is sorted ascending by path and
// frame indices are assigned from that order. On error the previous
// sequence is left untouched. On success the pixel cache is purged and
// both regions reset, so every frame is a miss until the next load.
func (c *SequenceCache) SetSequence(paths []string) error {
	seq, err := sequence.Build(c.dec, paths)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainCompletionLocked()

	c.seq = seq
	c.frames.Purge()
	c.regionPrefetch = window.Empty
	c.regionSafe = window.Empty
	c.nextPrefetch = window.Empty
	c.nextSafe = window.Empty
	// An in-flight batch from the old sequence keeps loading until it
	// signals; its completion then promotes the empty pending regions.

	c.log.Info("sequence set", "frames", seq.Len())
	return nil
}

// Request resolves path to a frame and serves it from the cache. A path
// that is not part of the sequence yields an empty Response with no side
// effects. A frame outside the safe region triggers a background load of a
// fresh window when none is in flight; the response is still served from
// the previously completed window, or empty on a miss. Callers typically
// retry on the next RequestHandled pulse.
func (c *SequenceCache) Request(path string) Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainCompletionLocked()

	frame, ok := c.seq.FrameOf(path)
	if !ok {
		return Response{}
	}

	if !c.regionSafe.Contains(frame) && !c.loading {
		c.loading = true
		n := c.seq.Len()
		c.nextPrefetch = window.Compute(frame, c.extentPrefetch, n)
		c.nextSafe = window.Compute(frame, c.extentSafe, n)
		c.dispatchLocked(c.seq.Slice(c.nextPrefetch.Start, c.nextPrefetch.End))
	}

	if c.regionPrefetch.Contains(frame) {
		desc, _ := c.seq.At(frame)
		resp := Response{Dim: desc.Dim, Meta: desc.Meta}
		if f, hit := c.frames.Get(cache.Key{Path: desc.Path, Level: c.level}); hit {
			resp.Img = f.Img
		}
		return resp
	}

	return Response{}
}

// dispatchLocked submits a background load for the pending window.
// Called with c.mu held; the task itself touches no coordinator state.
func (c *SequenceCache) dispatchLocked(batch []sequence.Descriptor) {
	id := uuid.NewString()
	c.log.Info("prefetch dispatched",
		"batch", id,
		"start", c.nextPrefetch.Start,
		"end", c.nextPrefetch.End,
		"frames", len(batch))

	dec, frames, level, log := c.dec, c.frames, c.level, c.log
	doneC, handledC := c.doneC, c.handledC

	c.executor.Submit(func() {
		for _, desc := range batch {
			key := cache.Key{Path: desc.Path, Level: level}
			_, err := frames.GetOrLoad(key, func() (*base.Frame, error) {
				return dec.Decode(desc.Path, level)
			})
			if err != nil {
				// The frame stays absent and is retried if a later
				// window recomputation includes it again.
				log.Warn("frame decode failed, skipping",
					"batch", id, "path", desc.Path, "error", err)
			}
		}

		// Capacity 1 and single-flight: never blocks.
		doneC <- struct{}{}
		select {
		case handledC <- struct{}{}:
		default:
		}
		log.Info("prefetch complete", "batch", id)
	})
}

// drainCompletionLocked applies a pending load completion, if any:
// the pending windows become current and the state machine returns to
// idle. Called with c.mu held at the top of every public method.
func (c *SequenceCache) drainCompletionLocked() {
	select {
	case <-c.doneC:
		c.loading = false
		c.regionPrefetch = c.nextPrefetch
		c.regionSafe = c.nextSafe
	default:
	}
}

// RequestHandled returns a channel that receives one pulse after each
// completed background batch. Observers use it to re-issue requests that
// previously missed; it carries no data and may coalesce under a slow
// receiver.
func (c *SequenceCache) RequestHandled() <-chan struct{} {
	return c.handledC
}

// CachedFrames returns the indices of every frame currently resident in
// the pixel cache at the configured resolution level. Diagnostic only;
// the prefetch region is the source of truth for hits.
func (c *SequenceCache) CachedFrames() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainCompletionLocked()

	var cached []int
	for frame := 0; frame < c.seq.Len(); frame++ {
		desc, _ := c.seq.At(frame)
		if c.frames.Contains(cache.Key{Path: desc.Path, Level: c.level}) {
			cached = append(cached, frame)
		}
	}
	return cached
}

// Regions returns the current safe and prefetch regions.
func (c *SequenceCache) Regions() (safe, prefetch Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainCompletionLocked()
	return c.regionSafe, c.regionPrefetch
}

// Loading reports whether a background batch is in flight.
func (c *SequenceCache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainCompletionLocked()
	return c.loading
}

// Len returns the number of frames in the current sequence.
func (c *SequenceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.Len()
}

// Stats returns pixel cache counters.
func (c *SequenceCache) Stats() CacheStats {
	return CacheStats(c.frames.Stats())
}

// CacheStats is a snapshot of pixel cache counters.
type CacheStats struct {
	Hits         uint64
	Misses       uint64
	Evictions    uint64
	Loads        uint64
	LoadFailures uint64
}

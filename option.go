package seqcache

// Options configures a SequenceCache.
type Options struct {
	extentPrefetch int // Half-width of the window loaded around the viewed frame.
	extentSafe     int // Half-width of the window that suppresses re-triggering.
	cacheCapacity  int // Bound on resident frames, in frames.
	level          int // Resolution level frames are decoded and served at.
	logger         Logger
	executor       Executor
}

// defaultOptions returns the configuration used when no options are passed:
// a 61-frame prefetch window with a 41-frame safe window nested inside it.
func defaultOptions() Options {
	return Options{
		extentPrefetch: 30,
		extentSafe:     20,
		cacheCapacity:  256,
		level:          1,
		logger:         DiscardLogger{},
		executor:       GoExecutor{},
	}
}

// Option configures a SequenceCache using the functional options pattern.
type Option func(*Options)

// WithPrefetchExtent sets the half-width of the prefetch window. Values
// below 1 are clamped to 1.
func WithPrefetchExtent(extent int) Option {
	return func(opts *Options) {
		opts.extentPrefetch = extent
	}
}

// WithSafeExtent sets the half-width of the safe window. It is clamped to
// stay strictly inside the prefetch window.
func WithSafeExtent(extent int) Option {
	return func(opts *Options) {
		opts.extentSafe = extent
	}
}

// WithCacheCapacity bounds the number of resident decoded frames. The cache
// enforces a small minimum so a window always fits partially in memory.
func WithCacheCapacity(frames int) Option {
	return func(opts *Options) {
		opts.cacheCapacity = frames
	}
}

// WithResolutionLevel sets the downscale factor frames are decoded and
// cached at (1 = full resolution). Distinct levels are distinct cache keys.
func WithResolutionLevel(level int) Option {
	return func(opts *Options) {
		opts.level = level
	}
}

// WithLogger sets the logger. A *slog.Logger satisfies the interface.
func WithLogger(logger Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithExecutor sets the executor background batch loads are submitted to.
// Tests substitute SyncExecutor for deterministic single-threaded runs.
func WithExecutor(executor Executor) Option {
	return func(opts *Options) {
		opts.executor = executor
	}
}

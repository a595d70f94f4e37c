package blockcache

import (
	"log/slog"
	"time"

	"github.com/hupe1980/blockcache/codec"
	"github.com/hupe1980/blockcache/recordstore"
)

// DefaultTTL is the fail-safe lifetime of fast-tier entries. Versioned
// keys orphan stale entries long before they expire; the TTL only bounds
// how long orphaned entries occupy cache memory.
const DefaultTTL = 24 * time.Hour

// DefaultWarmConcurrency is the number of roots warmed in parallel.
const DefaultWarmConcurrency = 4

type options struct {
	codec            codec.Codec
	records          recordstore.Store
	ttl              time.Duration
	warmConcurrency  int
	warmRatePerSec   float64
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Cache constructor behavior.
type Option func(*options)

// WithCodec configures the codec used for sealing and decoding payloads.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithDurableStore enables the durable tier. Add then writes every
// payload through the record store, Get falls back to it on a fast-tier
// miss, and cache keys become version-derived so stale entries are never
// read again.
//
// Without this option the cache runs in pure volatile mode: no fallback
// tier, static keys, and invalidation on content change is the caller's
// job via Delete.
func WithDurableStore(records recordstore.Store) Option {
	return func(o *options) {
		o.records = records
	}
}

// WithTTL configures the fail-safe lifetime of fast-tier entries.
// A ttl <= 0 disables expiry; entries then live until evicted by the
// fast tier or replaced. Defaults to DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithWarmConcurrency configures how many roots Warm loads in parallel.
// Values < 1 fall back to DefaultWarmConcurrency.
func WithWarmConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultWarmConcurrency
		}
		o.warmConcurrency = n
	}
}

// WithWarmRateLimit caps Warm at opsPerSec root loads per second, easing
// pressure on the durable tier during bulk repopulation. Zero or
// negative disables the limit.
func WithWarmRateLimit(opsPerSec float64) Option {
	return func(o *options) {
		o.warmRatePerSec = opsPerSec
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &blockcache.BasicMetricsCollector{}
//	bc, _ := blockcache.New(fast, blockcache.WithMetricsCollector(metrics))
//	// ... use bc ...
//	stats := metrics.GetStats()
//	fmt.Printf("Gets: %d, Avg latency: %dns\n", stats.GetCount, stats.GetAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := blockcache.NewJSONLogger(slog.LevelInfo)
//	bc, _ := blockcache.New(fast, blockcache.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            nil,
		ttl:              DefaultTTL,
		warmConcurrency:  DefaultWarmConcurrency,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

package blockcache

import (
	"sync/atomic"
	"time"
)

// Tier names reported to LogGet and MetricsCollector.RecordGet.
const (
	// SourceFast marks a payload served by the fast volatile tier.
	SourceFast = "fast"

	// SourceDurable marks a payload served by the durable tier after a
	// fast-tier miss.
	SourceDurable = "durable"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    addCounter   prometheus.Counter
//	    getHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAdd(duration time.Duration, err error) {
//	    p.addCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordAdd is called after each add operation.
	// duration is the total time taken, err is nil if successful.
	RecordAdd(duration time.Duration, err error)

	// RecordGet is called after each get operation.
	// source names the tier that served the payload (SourceFast or
	// SourceDurable), empty on failure. err is nil if successful.
	RecordGet(source string, duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordPurge is called after each purge operation.
	RecordPurge(duration time.Duration, err error)

	// RecordWarm is called after each warm operation.
	// requested is the number of roots attempted, warmed is the number
	// actually written to the fast tier.
	RecordWarm(requested, warmed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)         {}
func (NoopMetricsCollector) RecordGet(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)      {}
func (NoopMetricsCollector) RecordPurge(time.Duration, error)       {}
func (NoopMetricsCollector) RecordWarm(int, int, time.Duration)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount      atomic.Int64
	AddErrors     atomic.Int64
	AddTotalNanos atomic.Int64
	GetCount      atomic.Int64
	GetErrors     atomic.Int64
	GetTotalNanos atomic.Int64
	GetFastHits   atomic.Int64
	GetDurable    atomic.Int64
	DeleteCount   atomic.Int64
	DeleteErrors  atomic.Int64
	PurgeCount    atomic.Int64
	PurgeErrors   atomic.Int64
	WarmCount     atomic.Int64
	WarmRequested atomic.Int64
	WarmWarmed    atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(source string, duration time.Duration, err error) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())

	switch source {
	case SourceFast:
		b.GetFastHits.Add(1)
	case SourceDurable:
		b.GetDurable.Add(1)
	}

	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordPurge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPurge(duration time.Duration, err error) {
	b.PurgeCount.Add(1)
	if err != nil {
		b.PurgeErrors.Add(1)
	}
}

// RecordWarm implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWarm(requested, warmed int, duration time.Duration) {
	b.WarmCount.Add(1)
	b.WarmRequested.Add(int64(requested))
	b.WarmWarmed.Add(int64(warmed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:      b.AddCount.Load(),
		AddErrors:     b.AddErrors.Load(),
		AddAvgNanos:   b.getAvgAddNanos(),
		GetCount:      b.GetCount.Load(),
		GetErrors:     b.GetErrors.Load(),
		GetAvgNanos:   b.getAvgGetNanos(),
		GetFastHits:   b.GetFastHits.Load(),
		GetDurable:    b.GetDurable.Load(),
		DeleteCount:   b.DeleteCount.Load(),
		DeleteErrors:  b.DeleteErrors.Load(),
		PurgeCount:    b.PurgeCount.Load(),
		PurgeErrors:   b.PurgeErrors.Load(),
		WarmCount:     b.WarmCount.Load(),
		WarmRequested: b.WarmRequested.Load(),
		WarmWarmed:    b.WarmWarmed.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAddNanos() int64 {
	count := b.AddCount.Load()
	if count == 0 {
		return 0
	}
	return b.AddTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgGetNanos() int64 {
	count := b.GetCount.Load()
	if count == 0 {
		return 0
	}
	return b.GetTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount      int64
	AddErrors     int64
	AddAvgNanos   int64
	GetCount      int64
	GetErrors     int64
	GetAvgNanos   int64
	GetFastHits   int64
	GetDurable    int64
	DeleteCount   int64
	DeleteErrors  int64
	PurgeCount    int64
	PurgeErrors   int64
	WarmCount     int64
	WarmRequested int64
	WarmWarmed    int64
}

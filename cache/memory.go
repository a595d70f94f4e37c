package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the in-memory cache client.
type Options struct {
	// CleanupInterval is how often the janitor sweeps expired entries.
	// Zero or negative disables the janitor; expired entries are then
	// only hidden lazily on Get and stay in memory until overwritten.
	CleanupInterval time.Duration
}

// DefaultOptions returns the default in-memory cache options.
func DefaultOptions() Options {
	return Options{
		CleanupInterval: time.Minute,
	}
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process Client with per-entry TTLs. A background
// janitor sweeps expired entries; Get treats them as misses regardless
// of whether the janitor has run.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	hits   atomic.Int64
	misses atomic.Int64

	janitorTicker *time.Ticker
	janitorStopCh chan struct{}
	janitorWg     sync.WaitGroup
	closeOnce     sync.Once
}

var _ Client = (*Memory)(nil)

// NewMemory creates an in-memory cache client. Close stops the janitor.
func NewMemory(optFns ...func(o *Options)) *Memory {
	o := DefaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	m := &Memory{
		entries: make(map[string]entry),
	}

	if o.CleanupInterval > 0 {
		m.janitorStopCh = make(chan struct{})
		m.janitorTicker = time.NewTicker(o.CleanupInterval)
		m.janitorWg.Add(1)

		go m.janitor()
	}

	return m
}

// Get returns the value stored under key, or ErrMiss.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		m.misses.Add(1)
		return nil, ErrMiss
	}

	m.hits.Add(1)

	// Copy on read so callers cannot mutate cached bytes.
	out := make([]byte, len(e.value))
	copy(out, e.value)

	return out, nil
}

// Set stores value under key for the given lifetime.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)

	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()

	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

// Close stops the janitor. The client stays usable afterwards; only
// background cleanup ends.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		if m.janitorTicker != nil {
			close(m.janitorStopCh)
			m.janitorWg.Wait()
			m.janitorTicker.Stop()
		}
	})

	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Stats returns cache statistics.
func (m *Memory) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}

func (m *Memory) janitor() {
	defer m.janitorWg.Done()

	for {
		select {
		case <-m.janitorStopCh:
			return
		case <-m.janitorTicker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}

package blockcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/blockcache/blobstore"
	"github.com/hupe1980/blockcache/cache"
	"github.com/hupe1980/blockcache/codec"
	"github.com/hupe1980/blockcache/recordstore"
	"github.com/hupe1980/blockcache/structure"
)

// testStructure returns a small tree: a root with two children, one
// annotated block and per-block attributes.
func testStructure() *structure.BlockStructure {
	s := structure.New("R1")
	s.DataVersion = "pub-42"
	s.EditedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetChildren("R1", "R1.a", "R1.b")
	s.SetChildren("R1.a")
	s.SetChildren("R1.b")
	s.SetTransformerData("T", "R1.a", []byte("x"))
	s.SetBlockData("R1.a", []byte("attrs-a"))
	s.SetBlockData("R1.b", []byte("attrs-b"))

	return s
}

func newVolatileCache(t *testing.T, optFns ...Option) (*Cache, *cache.Memory) {
	t.Helper()

	fast := cache.NewMemory(func(o *cache.Options) { o.CleanupInterval = 0 })

	bc, err := New(fast, optFns...)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, bc.Close()) })

	return bc, fast
}

func newStorageCache(t *testing.T, optFns ...Option) (*Cache, *cache.Memory, *recordstore.Memory) {
	t.Helper()

	fast := cache.NewMemory(func(o *cache.Options) { o.CleanupInterval = 0 })
	records := recordstore.NewMemory(blobstore.NewMemory())

	bc, err := New(fast, append([]Option{WithDurableStore(records)}, optFns...)...)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, bc.Close()) })

	return bc, fast, records
}

// recordingClient wraps a Memory client, recording Set TTLs and allowing
// failure injection.
type recordingClient struct {
	*cache.Memory

	mu      sync.Mutex
	setTTLs []time.Duration
	getErr  error
	setErr  error
}

func newRecordingClient() *recordingClient {
	return &recordingClient{
		Memory: cache.NewMemory(func(o *cache.Options) { o.CleanupInterval = 0 }),
	}
}

func (r *recordingClient) Get(ctx context.Context, key string) ([]byte, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.Memory.Get(ctx, key)
}

func (r *recordingClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.setErr != nil {
		return r.setErr
	}

	r.mu.Lock()
	r.setTTLs = append(r.setTTLs, ttl)
	r.mu.Unlock()

	return r.Memory.Set(ctx, key, value, ttl)
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	fast := cache.NewMemory(func(o *cache.Options) { o.CleanupInterval = 0 })
	defer fast.Close()

	bc, err := New(fast, nil, WithCodec(nil))
	require.NoError(t, err)
	require.NotNil(t, bc)
}

func TestAddGetVolatile(t *testing.T) {
	ctx := context.Background()
	bc, _ := newVolatileCache(t)

	s := testStructure()
	require.NoError(t, bc.Add(ctx, s))

	got, err := bc.Get(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, structure.Key("R1"), got.Root)
	assert.Equal(t, s.Tables, got.Tables)
}

func TestAddGetStorageBacked(t *testing.T) {
	ctx := context.Background()
	bc, _, _ := newStorageCache(t)

	s := testStructure()
	require.NoError(t, bc.Add(ctx, s))

	got, err := bc.Get(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, s.Tables, got.Tables)

	// Version fields come back from the durable record.
	assert.Equal(t, "pub-42", got.DataVersion)
	assert.True(t, got.EditedAt.Equal(s.EditedAt))
}

func TestAddNilStructure(t *testing.T) {
	bc, _ := newVolatileCache(t)
	require.Error(t, bc.Add(context.Background(), nil))
}

func TestGetMiss(t *testing.T) {
	ctx := context.Background()

	t.Run("Volatile", func(t *testing.T) {
		bc, _ := newVolatileCache(t)

		_, err := bc.Get(ctx, "absent")
		require.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, codec.ErrCorruptPayload)
	})

	t.Run("StorageBacked", func(t *testing.T) {
		bc, _, _ := newStorageCache(t)

		_, err := bc.Get(ctx, "absent")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetFallsBackToDurableTier(t *testing.T) {
	ctx := context.Background()

	metrics := &BasicMetricsCollector{}
	bc, _, _ := newStorageCache(t, WithMetricsCollector(metrics))

	s := testStructure()
	require.NoError(t, bc.Add(ctx, s))

	// Evict the fast-tier entry; the durable record stays.
	require.NoError(t, bc.Delete(ctx, "R1"))

	got, err := bc.Get(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, s.Tables, got.Tables)

	// The fallback read repopulated the fast tier.
	_, err = bc.Get(ctx, "R1")
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.GetDurable)
	assert.Equal(t, int64(1), stats.GetFastHits)
}

func TestDeleteVolatile(t *testing.T) {
	ctx := context.Background()
	bc, _ := newVolatileCache(t)

	s := testStructure()
	require.NoError(t, bc.Add(ctx, s))
	require.NoError(t, bc.Delete(ctx, "R1"))

	_, err := bc.Get(ctx, "R1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteWithoutRecordIsNoop(t *testing.T) {
	bc, _, _ := newStorageCache(t)
	require.NoError(t, bc.Delete(context.Background(), "absent"))
}

func TestCorruptPayloadIsNotAMiss(t *testing.T) {
	ctx := context.Background()
	bc, fast, records := newStorageCache(t)

	s := testStructure()
	require.NoError(t, bc.Add(ctx, s))

	// Clobber the fast-tier entry with truncated bytes.
	rec, err := records.GetCurrent(ctx, "R1")
	require.NoError(t, err)

	key := EncodeKey(codec.Default, "R1", &rec)
	require.NoError(t, fast.Set(ctx, key, []byte("garbage"), 0))

	_, err = bc.Get(ctx, "R1")
	require.ErrorIs(t, err, codec.ErrCorruptPayload)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewVersionOrphansOldEntry(t *testing.T) {
	ctx := context.Background()
	bc, fast, _ := newStorageCache(t)

	s := testStructure()
	require.NoError(t, bc.Add(ctx, s))

	s2 := testStructure()
	s2.DataVersion = "pub-43"
	s2.SetBlockData("R1.a", []byte("attrs-a-revised"))
	require.NoError(t, bc.Add(ctx, s2))

	// The old entry stays in the fast tier under its old key, unreachable.
	assert.Equal(t, 2, fast.Len())

	got, err := bc.Get(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "pub-43", got.DataVersion)

	data, ok := got.BlockData("R1.a")
	require.True(t, ok)
	assert.Equal(t, []byte("attrs-a-revised"), data)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesBothTiers", func(t *testing.T) {
		bc, fast, records := newStorageCache(t)

		s := testStructure()
		require.NoError(t, bc.Add(ctx, s))
		require.NoError(t, bc.Purge(ctx, "R1"))

		assert.Equal(t, 0, fast.Len())

		_, err := records.GetCurrent(ctx, "R1")
		require.ErrorIs(t, err, recordstore.ErrNotFound)

		_, err = bc.Get(ctx, "R1")
		require.ErrorIs(t, err, ErrNotFound)

		// Purging an absent root is a no-op.
		require.NoError(t, bc.Purge(ctx, "R1"))
	})

	t.Run("RequiresDurableStore", func(t *testing.T) {
		bc, _ := newVolatileCache(t)
		require.ErrorIs(t, bc.Purge(ctx, "R1"), ErrStorageNotConfigured)
	})
}

func TestWarm(t *testing.T) {
	ctx := context.Background()

	t.Run("RepopulatesFastTier", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		bc, fast, _ := newStorageCache(t,
			WithMetricsCollector(metrics),
			WithWarmConcurrency(2),
			WithWarmRateLimit(1000),
		)

		roots := []structure.Key{"R1", "R2", "R3"}
		for _, root := range roots {
			s := testStructure()
			s.Root = root
			require.NoError(t, bc.Add(ctx, s))
			require.NoError(t, bc.Delete(ctx, root))
		}
		require.Equal(t, 0, fast.Len())

		warmed, err := bc.Warm(ctx, append(roots, "absent"))
		require.NoError(t, err)
		assert.Equal(t, 3, warmed)
		assert.Equal(t, 3, fast.Len())

		// Warmed entries are served from the fast tier.
		_, err = bc.Get(ctx, "R2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), metrics.GetStats().GetFastHits)

		// Already-cached roots are skipped.
		warmed, err = bc.Warm(ctx, roots)
		require.NoError(t, err)
		assert.Equal(t, 0, warmed)
	})

	t.Run("RequiresDurableStore", func(t *testing.T) {
		bc, _ := newVolatileCache(t)

		_, err := bc.Warm(ctx, []structure.Key{"R1"})
		require.ErrorIs(t, err, ErrStorageNotConfigured)
	})
}

func TestTTLPassThrough(t *testing.T) {
	ctx := context.Background()

	rec := newRecordingClient()
	bc, err := New(rec, WithTTL(42*time.Minute))
	require.NoError(t, err)
	defer bc.Close()

	require.NoError(t, bc.Add(ctx, testStructure()))
	require.Equal(t, []time.Duration{42 * time.Minute}, rec.setTTLs)

	def := newRecordingClient()
	bc2, err := New(def)
	require.NoError(t, err)
	defer bc2.Close()

	require.NoError(t, bc2.Add(ctx, testStructure()))
	require.Equal(t, []time.Duration{DefaultTTL}, def.setTTLs)
}

func TestFastTierErrorPropagates(t *testing.T) {
	ctx := context.Background()

	rec := newRecordingClient()
	records := recordstore.NewMemory(blobstore.NewMemory())

	bc, err := New(rec, WithDurableStore(records))
	require.NoError(t, err)
	defer bc.Close()

	require.NoError(t, bc.Add(ctx, testStructure()))

	// An unreachable fast tier is not a miss; no durable fallback.
	tierDown := errors.New("connection refused")
	rec.getErr = tierDown

	_, err = bc.Get(ctx, "R1")
	require.ErrorIs(t, err, tierDown)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMetricsCollector(t *testing.T) {
	ctx := context.Background()

	metrics := &BasicMetricsCollector{}
	bc, _, _ := newStorageCache(t, WithMetricsCollector(metrics))

	require.NoError(t, bc.Add(ctx, testStructure()))

	_, err := bc.Get(ctx, "R1")
	require.NoError(t, err)

	_, err = bc.Get(ctx, "absent")
	require.Error(t, err)

	require.NoError(t, bc.Delete(ctx, "R1"))
	require.NoError(t, bc.Purge(ctx, "R1"))

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.AddCount)
	assert.Equal(t, int64(2), stats.GetCount)
	assert.Equal(t, int64(1), stats.GetErrors)
	assert.Equal(t, int64(1), stats.GetFastHits)
	assert.Equal(t, int64(1), stats.DeleteCount)
	assert.Equal(t, int64(1), stats.PurgeCount)
}

func TestConcurrentAddGet(t *testing.T) {
	ctx := context.Background()
	bc, _, _ := newStorageCache(t)

	s := testStructure()
	require.NoError(t, bc.Add(ctx, s))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 25; j++ {
				if j%5 == 0 {
					if err := bc.Add(gctx, testStructure()); err != nil {
						return err
					}
				}

				got, err := bc.Get(gctx, "R1")
				if err != nil {
					return err
				}
				if got.Root != "R1" {
					return errors.New("unexpected root")
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
}

package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-snapshot/internal/config"
	"github.com/vzahanych/weather-snapshot/internal/onecall"
	"github.com/vzahanych/weather-snapshot/internal/onecall/onecalltest"
	"github.com/vzahanych/weather-snapshot/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

type fakeProvider struct {
	calls atomic.Int32
	err   error
}

func (f *fakeProvider) FetchOneCall(ctx context.Context, coords onecall.Coordinates) (*onecall.Response, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	resp := onecalltest.Response()
	resp.Lat, resp.Lon = coords.Lat, coords.Lon
	return resp, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type countingRecorder struct {
	hits, misses atomic.Int32
}

func (r *countingRecorder) RecordCacheHit(ctx context.Context, cacheType string)  { r.hits.Add(1) }
func (r *countingRecorder) RecordCacheMiss(ctx context.Context, cacheType string) { r.misses.Add(1) }

func newRedis(t *testing.T) (*miniredis.Miniredis, *redisv9.Client) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedProvider_RoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	provider := &fakeProvider{}
	recorder := &countingRecorder{}

	cached := NewCachedProvider(provider, client, time.Minute, "onecall:", zaptest.NewLogger(t), telemetry.Disabled())
	cached.SetMetricsRecorder(recorder)

	coords := onecall.Coordinates{Lat: 49.8061, Lon: 24.8964}
	ctx := context.Background()

	first, err := cached.FetchOneCall(ctx, coords)
	require.NoError(t, err)
	second, err := cached.FetchOneCall(ctx, coords)
	require.NoError(t, err)

	assert.Equal(t, int32(1), provider.calls.Load())
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("onecall:49.806100,24.896400"))
	assert.Equal(t, time.Minute, mr.TTL("onecall:49.806100,24.896400"))

	assert.Equal(t, int32(1), recorder.hits.Load())
	assert.Equal(t, int32(1), recorder.misses.Load())

	stats := cached.GetCacheStats()
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])
	assert.Equal(t, "fake [Cached]", cached.Name())
}

func TestCachedProvider_Expires(t *testing.T) {
	mr, client := newRedis(t)
	provider := &fakeProvider{}

	cached := NewCachedProvider(provider, client, 10*time.Second, "onecall:", zaptest.NewLogger(t), telemetry.Disabled())
	coords := onecall.Coordinates{Lat: 1, Lon: 2}

	_, err := cached.FetchOneCall(context.Background(), coords)
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)

	_, err = cached.FetchOneCall(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestCachedProvider_KeysByCoordinates(t *testing.T) {
	_, client := newRedis(t)
	provider := &fakeProvider{}

	cached := NewCachedProvider(provider, client, time.Minute, "onecall:", zaptest.NewLogger(t), telemetry.Disabled())

	a, err := cached.FetchOneCall(context.Background(), onecall.Coordinates{Lat: 1, Lon: 2})
	require.NoError(t, err)
	b, err := cached.FetchOneCall(context.Background(), onecall.Coordinates{Lat: 3, Lon: 4})
	require.NoError(t, err)

	assert.Equal(t, int32(2), provider.calls.Load())
	assert.InDelta(t, 1.0, a.Lat, 1e-9)
	assert.InDelta(t, 3.0, b.Lat, 1e-9)
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	mr, client := newRedis(t)
	provider := &fakeProvider{err: errors.New("upstream down")}

	cached := NewCachedProvider(provider, client, time.Minute, "onecall:", zaptest.NewLogger(t), telemetry.Disabled())

	_, err := cached.FetchOneCall(context.Background(), onecall.Coordinates{})
	assert.EqualError(t, err, "upstream down")
	assert.Empty(t, mr.Keys())
}

func TestCachedProvider_RedisDownFallsThrough(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	provider := &fakeProvider{}
	cached := NewCachedProvider(provider, client, time.Minute, "onecall:", zaptest.NewLogger(t), telemetry.Disabled())

	resp, err := cached.FetchOneCall(context.Background(), onecall.Coordinates{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.NotNil(t, resp)

	_, err = cached.FetchOneCall(context.Background(), onecall.Coordinates{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestCachedProvider_CorruptEntryIsMiss(t *testing.T) {
	mr, client := newRedis(t)
	require.NoError(t, mr.Set("onecall:1.000000,2.000000", "{not json"))

	provider := &fakeProvider{}
	cached := NewCachedProvider(provider, client, time.Minute, "onecall:", zaptest.NewLogger(t), telemetry.Disabled())

	_, err := cached.FetchOneCall(context.Background(), onecall.Coordinates{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestMemoryClient_Expiry(t *testing.T) {
	mem := NewMemoryClient()
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, "k", []byte("v"), time.Minute).Err())

	val, err := mem.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	now = now.Add(time.Minute)
	_, err = mem.Get(ctx, "k").Result()
	assert.ErrorIs(t, err, redisv9.Nil)
	assert.Equal(t, 0, mem.Len())

	assert.Error(t, mem.Set(ctx, "k", 42, 0).Err())
}

func TestMemoryClient_ExpiredReadKeepsConcurrentSet(t *testing.T) {
	mem := NewMemoryClient()
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	// overwrite the key from inside the first expiry check, after Get has
	// dropped its read lock
	overwrite := false
	mem.now = func() time.Time {
		if overwrite {
			overwrite = false
			require.NoError(t, mem.Set(ctx, "k", "fresh", time.Minute).Err())
		}
		return now
	}

	require.NoError(t, mem.Set(ctx, "k", "stale", time.Minute).Err())
	now = now.Add(time.Minute)
	overwrite = true

	val, err := mem.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "fresh", val)
	assert.Equal(t, 1, mem.Len())
}

func TestCachedProvider_MemoryClient(t *testing.T) {
	provider := &fakeProvider{}
	cached := NewCachedProvider(provider, NewMemoryClient(), time.Minute, "onecall:", zaptest.NewLogger(t), telemetry.Disabled())

	for i := 0; i < 3; i++ {
		_, err := cached.FetchOneCall(context.Background(), onecall.Coordinates{Lat: 5, Lon: 6})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), provider.calls.Load())
}

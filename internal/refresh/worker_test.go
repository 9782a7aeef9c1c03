package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-snapshot/internal/onecall"
	"go.uber.org/zap/zaptest"
)

type failingLocation struct{}

func (failingLocation) LastKnown(ctx context.Context) (onecall.Coordinates, error) {
	return onecall.Coordinates{}, errors.New("no fix")
}

func TestWorker_StartStop_Lifecycle(t *testing.T) {
	provider := &fakeProvider{}
	r, store := newTestRefresher(t, provider)

	worker := NewWorker(r, onecall.StaticLocation(testCoords), 10*time.Millisecond, zaptest.NewLogger(t))

	require.NoError(t, worker.Start(context.Background()))
	assert.ErrorIs(t, worker.Start(context.Background()), ErrWorkerRunning)

	require.Eventually(t, func() bool { return provider.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Monday", store.Current().CurrentDay)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, worker.Stop(stopCtx))
	require.NoError(t, worker.Stop(stopCtx))

	calls := provider.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, provider.calls.Load())
}

func TestWorker_RefreshesImmediately(t *testing.T) {
	provider := &fakeProvider{}
	r, store := newTestRefresher(t, provider)

	worker := NewWorker(r, onecall.StaticLocation(testCoords), time.Hour, zaptest.NewLogger(t))
	require.NoError(t, worker.Start(context.Background()))
	defer func() { _ = worker.Stop(context.Background()) }()

	require.Eventually(t, func() bool { return store.Current().CurrentDay == "Monday" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestWorker_StopAbortsRunningRefresh(t *testing.T) {
	provider := &fakeProvider{release: make(chan struct{})}
	r, store := newTestRefresher(t, provider)
	version := store.Version()

	worker := NewWorker(r, onecall.StaticLocation(testCoords), time.Hour, zaptest.NewLogger(t))
	require.NoError(t, worker.Start(context.Background()))

	require.Eventually(t, func() bool { return r.InFlight() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, worker.Stop(context.Background()))

	require.Eventually(t, func() bool { return r.InFlight() == 0 }, time.Second, time.Millisecond)
	close(provider.release)

	assert.Equal(t, version, store.Version())
	assert.False(t, store.Current().Failed)
}

func TestWorker_StopsWithParentContext(t *testing.T) {
	provider := &fakeProvider{}
	r, _ := newTestRefresher(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	worker := NewWorker(r, onecall.StaticLocation(testCoords), 5*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, worker.Start(ctx))

	cancel()

	done := make(chan struct{})
	go func() {
		worker.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after context cancellation")
	}
}

func TestWorker_LocationFailurePublishesErrorSnapshot(t *testing.T) {
	provider := &fakeProvider{}
	r, store := newTestRefresher(t, provider)

	worker := NewWorker(r, failingLocation{}, time.Hour, zaptest.NewLogger(t))
	require.NoError(t, worker.Start(context.Background()))
	defer func() { _ = worker.Stop(context.Background()) }()

	require.Eventually(t, func() bool { return store.Current().Failed }, time.Second, 5*time.Millisecond)
	assert.Zero(t, provider.calls.Load())
}

func TestNewWorker_DefaultInterval(t *testing.T) {
	r, _ := newTestRefresher(t, &fakeProvider{})
	worker := NewWorker(r, onecall.StaticLocation(testCoords), 0, zaptest.NewLogger(t))
	assert.Equal(t, defaultInterval, worker.interval)
}

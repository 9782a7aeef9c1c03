// Package refresh fetches, translates and publishes weather snapshots.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vzahanych/weather-snapshot/internal/onecall"
	"github.com/vzahanych/weather-snapshot/internal/snapshot"
	"github.com/vzahanych/weather-snapshot/internal/state"
	"github.com/vzahanych/weather-snapshot/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordRefresh(ctx context.Context, success bool)
	RecordSharedRefresh(ctx context.Context)
}

// Refresher runs at most one fetch per coordinate pair at a time. Callers
// arriving while a fetch is running wait for it and share its result. The
// fetch is canceled once every caller waiting on it has given up.
type Refresher struct {
	provider onecall.Provider
	store    *state.Store
	group    singleflight.Group
	loc      *time.Location
	names    snapshot.DayNames
	logger   *zap.Logger
	tele     *telemetry.Telemetry
	metrics  MetricsRecorder

	mutex   sync.Mutex
	flights map[string]*flight

	inFlight atomic.Int32
	waiting  atomic.Int32
	now      func() time.Time
}

// flight tracks the callers waiting on one coordinate key.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// outcome is shared by every caller of one fetch.
type outcome struct {
	snap    *snapshot.Snapshot
	publish sync.Once
}

func NewRefresher(provider onecall.Provider, store *state.Store, loc *time.Location, names snapshot.DayNames, logger *zap.Logger, tele *telemetry.Telemetry) *Refresher {
	return &Refresher{
		provider: provider,
		store:    store,
		loc:      loc,
		names:    names,
		logger:   logger,
		tele:     tele,
		flights:  make(map[string]*flight),
		now:      time.Now,
	}
}

// SetMetricsRecorder sets the metrics recorder for the refresher
func (r *Refresher) SetMetricsRecorder(metrics MetricsRecorder) {
	r.metrics = metrics
}

// Refresh fetches and translates the weather at coords and publishes the
// result to the store. On failure the error snapshot is published instead
// and the error is returned. A caller that gives up first publishes nothing.
func (r *Refresher) Refresh(ctx context.Context, coords onecall.Coordinates) (*snapshot.Snapshot, error) {
	r.store.StartLoading()
	defer r.store.FinishLoading()

	out, err := r.do(ctx, coords)
	if out == nil {
		return nil, err
	}

	out.publish.Do(func() {
		if err != nil {
			r.publishFailure()
			return
		}
		r.store.Publish(out.snap)
	})

	if err != nil {
		return nil, err
	}
	return out.snap, nil
}

// Snapshot fetches and translates without touching the store. It joins a
// running Refresh for the same coordinates.
func (r *Refresher) Snapshot(ctx context.Context, coords onecall.Coordinates) (*snapshot.Snapshot, error) {
	out, err := r.do(ctx, coords)
	if err != nil {
		return nil, err
	}
	return out.snap, nil
}

// InFlight reports how many fetches are running right now.
func (r *Refresher) InFlight() int {
	return int(r.inFlight.Load())
}

// Now is the clock used for error snapshots.
func (r *Refresher) Now() time.Time {
	return r.now()
}

// do returns a nil outcome only when ctx ended before the fetch did.
func (r *Refresher) do(ctx context.Context, coords onecall.Coordinates) (*outcome, error) {
	key := coords.Key()

	f := r.join(ctx, key)
	defer r.leave(key, f)

	r.waiting.Add(1)
	defer r.waiting.Add(-1)

	ch := r.group.DoChan(key, func() (interface{}, error) {
		r.inFlight.Add(1)
		defer r.inFlight.Add(-1)

		out := &outcome{}
		snap, err := r.build(f.ctx, coords)
		if err == nil {
			out.snap = snap
		}
		if r.metrics != nil {
			r.metrics.RecordRefresh(f.ctx, err == nil)
		}
		return out, err
	})

	select {
	case res := <-ch:
		if res.Shared && r.metrics != nil {
			r.metrics.RecordSharedRefresh(ctx)
		}
		return res.Val.(*outcome), res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Refresher) join(ctx context.Context, key string) *flight {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	f, ok := r.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		r.flights[key] = f
	}
	f.waiters++
	return f
}

// leave cancels the fetch when its last waiter is gone. Forget makes the
// next caller start a fresh fetch instead of joining the canceled one.
func (r *Refresher) leave(key string, f *flight) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	delete(r.flights, key)
	r.group.Forget(key)
}

func (r *Refresher) build(ctx context.Context, coords onecall.Coordinates) (*snapshot.Snapshot, error) {
	ctx, span := r.tele.StartSpan(ctx, "refresh.build",
		attribute.Float64("lat", coords.Lat),
		attribute.Float64("lon", coords.Lon),
		attribute.String("provider", r.provider.Name()),
	)
	defer span.End()

	started := time.Now()

	resp, err := r.provider.FetchOneCall(ctx, coords)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		if ctx.Err() != nil {
			r.logger.Debug("Weather fetch canceled",
				zap.Float64("lat", coords.Lat),
				zap.Float64("lon", coords.Lon))
			return nil, err
		}
		r.tele.RecordError(ctx, err, map[string]interface{}{"stage": "fetch"})
		r.logger.Error("Failed to fetch weather data",
			zap.String("provider", r.provider.Name()),
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon),
			zap.Error(err))
		return nil, err
	}

	snap, err := snapshot.Translate(resp, r.loc, r.names)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		r.tele.RecordError(ctx, err, map[string]interface{}{"stage": "translate"})
		r.logger.Error("Failed to translate weather data",
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon),
			zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	r.logger.Info("Weather snapshot built",
		zap.Float64("lat", coords.Lat),
		zap.Float64("lon", coords.Lon),
		zap.String("current_day", snap.CurrentDay),
		zap.Stringer("condition", snap.CurrentCondition),
		zap.Duration("took", time.Since(started)))

	return snap, nil
}

func (r *Refresher) publishFailure() {
	r.store.Publish(snapshot.ErrorSnapshot(r.now().In(r.location())))
}

func (r *Refresher) location() *time.Location {
	if r.loc == nil {
		return time.UTC
	}
	return r.loc
}

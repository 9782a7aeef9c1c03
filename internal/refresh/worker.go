package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vzahanych/weather-snapshot/internal/onecall"
	"go.uber.org/zap"
)

var ErrWorkerRunning = errors.New("refresh worker already running")

const defaultInterval = 15 * time.Minute

// Worker refreshes the snapshot for the consumer's location on a fixed
// interval, starting with an immediate refresh.
type Worker struct {
	refresher *Refresher
	location  onecall.LocationProvider
	interval  time.Duration
	logger    *zap.Logger

	mutex   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewWorker(refresher *Refresher, location onecall.LocationProvider, interval time.Duration, logger *zap.Logger) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{
		refresher: refresher,
		location:  location,
		interval:  interval,
		logger:    logger.With(zap.String("component", "refresh_worker")),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.running {
		return ErrWorkerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("Refresh worker started", zap.Duration("interval", w.interval))
	return nil
}

// Stop cancels the loop and waits for it to exit or for ctx to expire.
func (w *Worker) Stop(ctx context.Context) error {
	w.mutex.Lock()
	if !w.running {
		w.mutex.Unlock()
		return nil
	}
	w.cancel()
	w.running = false
	w.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Refresh worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.refreshOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refreshOnce(ctx)
		case <-ctx.Done():
			w.logger.Info("Context cancelled, refresh worker stopping")
			return
		}
	}
}

func (w *Worker) refreshOnce(ctx context.Context) {
	coords, err := w.location.LastKnown(ctx)
	if err != nil {
		w.logger.Warn("No location available", zap.Error(err))
		w.refresher.publishFailure()
		return
	}

	if _, err := w.refresher.Refresh(ctx, coords); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Warn("Scheduled refresh failed",
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon),
			zap.Error(err))
	}
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/vzahanych/weather-snapshot/internal/cache"
	"github.com/vzahanych/weather-snapshot/internal/config"
	"github.com/vzahanych/weather-snapshot/internal/onecall"
	"github.com/vzahanych/weather-snapshot/internal/refresh"
	"github.com/vzahanych/weather-snapshot/internal/server/handlers"
	"github.com/vzahanych/weather-snapshot/internal/snapshot"
	"github.com/vzahanych/weather-snapshot/internal/state"
	"go.uber.org/zap"
)

// app bundles the components shared by every subcommand.
type app struct {
	cfg        *config.Config
	loc        *time.Location
	store      *state.Store
	refresher  *refresh.Refresher
	appMetrics *handlers.AppMetrics
	closers    []func() error
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	loc, err := cfg.Weather.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		loc:        loc,
		appMetrics: handlers.NewAppMetrics(),
	}

	var provider onecall.Provider = onecall.NewClient(cfg.Weather, log, tele)

	var cacheClient cache.Client
	if cfg.Redis.Enabled {
		rdb := cache.NewRedisClient(cfg.Redis)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		cacheClient = rdb
		log.Info("Using redis response cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		cacheClient = cache.NewMemoryClient()
	}

	if ttl := cfg.Weather.CacheTTLDuration(); ttl > 0 {
		cached := cache.NewCachedProvider(provider, cacheClient, ttl, cfg.Redis.KeyPrefix, log, tele)
		cached.SetMetricsRecorder(a.appMetrics)
		provider = cached
	}

	a.store = state.NewStore(snapshot.Placeholder(time.Now().In(loc)))
	a.refresher = refresh.NewRefresher(provider, a.store, loc, snapshot.DayNamesFor(cfg.Weather.Language), log, tele)
	a.refresher.SetMetricsRecorder(a.appMetrics)

	log.Info("Weather pipeline ready",
		zap.String("provider", provider.Name()),
		zap.String("timezone", loc.String()),
		zap.String("language", cfg.Weather.Language),
		zap.Bool("api_key_set", cfg.Weather.APIKey != ""))

	return a, nil
}

func (a *app) defaultLocation() onecall.LocationProvider {
	return onecall.StaticLocation{Lat: a.cfg.Weather.DefaultLat, Lon: a.cfg.Weather.DefaultLon}
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Warn("Error closing resource", zap.Error(err))
		}
	}
}

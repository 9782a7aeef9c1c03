package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-snapshot/internal/config"
	"github.com/vzahanych/weather-snapshot/internal/onecall"
	"github.com/vzahanych/weather-snapshot/internal/refresh"
	"github.com/vzahanych/weather-snapshot/internal/server/handlers"
	"github.com/vzahanych/weather-snapshot/internal/server/utils"
	"github.com/vzahanych/weather-snapshot/internal/snapshot"
	"go.uber.org/zap"
)

type snapshotOptions struct {
	lat   float64
	lon   float64
	watch bool
}

func snapshotCmd() *cobra.Command {
	opts := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch and print a weather snapshot",
		Long: `Fetch the one-call forecast for a location, translate it and print the snapshot as JSON.
Coordinates default to weather.default_lat and weather.default_lon. With --watch the
snapshot is refreshed every weather.refresh_interval seconds until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if !cmd.Flags().Changed("lat") {
				opts.lat = cfg.Weather.DefaultLat
			}
			if !cmd.Flags().Changed("lon") {
				opts.lon = cfg.Weather.DefaultLon
			}
			return runSnapshot(cmd, cfg, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "longitude in degrees")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "keep refreshing and print every new snapshot")

	return cmd
}

type coordinateArgs struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

func runSnapshot(cmd *cobra.Command, cfg *config.Config, opts *snapshotOptions) error {
	if verrs := utils.ValidateStruct(coordinateArgs{Lat: opts.lat, Lon: opts.lon}); len(verrs) > 0 {
		return fmt.Errorf("invalid coordinates: %s", verrs[0].Message)
	}

	ctx := cmd.Context()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	updates, unsubscribe := a.store.Subscribe()
	defer unsubscribe()

	coords := onecall.StaticLocation{Lat: opts.lat, Lon: opts.lon}
	out := cmd.OutOrStdout()

	if !opts.watch {
		_, refreshErr := a.refresher.Refresh(ctx, onecall.Coordinates(coords))
		select {
		case snap := <-updates:
			if err := printSnapshot(out, snap); err != nil {
				return err
			}
		default:
		}
		return refreshErr
	}

	worker := refresh.NewWorker(a.refresher, coords, cfg.Weather.RefreshIntervalDuration(), log)
	if err := worker.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := worker.Stop(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Error stopping refresh worker", zap.Error(err))
		}
	}()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := printSnapshot(out, snap); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func printSnapshot(w io.Writer, snap *snapshot.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(handlers.NewWeatherResponse(snap, time.Now()))
}

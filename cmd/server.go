package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-snapshot/internal/config"
	"github.com/vzahanych/weather-snapshot/internal/refresh"
	"github.com/vzahanych/weather-snapshot/internal/server"
	"go.uber.org/zap"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the weather snapshot server",
		Long:  `Start the HTTP server and the background loop that keeps the snapshot for the configured location fresh.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	log.Info("Starting weather snapshot server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	worker := refresh.NewWorker(a.refresher, a.defaultLocation(), cfg.Weather.RefreshIntervalDuration(), log)
	if err := worker.Start(cmd.Context()); err != nil {
		return err
	}

	srv := server.NewServer(cfg.Server, a.refresher, a.store, a.appMetrics, log, tele)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	var runErr error
	select {
	case runErr = <-errChan:
		if runErr != nil {
			log.Error("Server error", zap.Error(runErr))
		}
	case <-cmd.Context().Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	if err := worker.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping refresh worker", zap.Error(err))
	}

	log.Info("Server shutdown complete")
	return runErr
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/perfstore/internal/bucket"
	httpapi "github.com/sawpanic/perfstore/internal/interfaces/http"
	"github.com/sawpanic/perfstore/internal/report"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only reporting API",
		Long:  "Serves /health, /metrics, /report/{category}, /report/{category}/range and the /live/{category} websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				cfg.HTTP.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.HTTP.Port = port
			}
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")
	return cmd
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	metrics := httpapi.NewMetricsRegistry()

	s, err := openStore(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer s.Close()

	builder := report.NewBuilder(s, report.Options{
		ValueField:  cfg.Report.ValueField,
		Concurrency: cfg.Report.Concurrency,
	})

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.RateLimitRPS = cfg.HTTP.RateLimitRPS
	serverCfg.RateBurst = cfg.HTTP.RateBurst
	serverCfg.LiveInterval = cfg.HTTP.LiveInterval
	serverCfg.DefaultDays = bucket.Days(cfg.Retention)
	serverCfg.Version = version

	server := httpapi.NewServer(serverCfg, builder, s, metrics)

	serverErr := make(chan error, 1)
	go func() {
		addr := server.Address()
		log.Info().
			Str("health", fmt.Sprintf("http://%s/health", addr)).
			Str("metrics", fmt.Sprintf("http://%s/metrics", addr)).
			Str("report", fmt.Sprintf("http://%s/report/{category}", addr)).
			Str("live", fmt.Sprintf("ws://%s/live/{category}", addr)).
			Msg("Reporting endpoints available")

		serverErr <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
		return err
	}

	log.Info().Msg("Reporting server shutdown complete")
	return nil
}

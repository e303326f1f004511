package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/alfred/kernel"
	"github.com/tailored-agentic-units/alfred/metrics"
	"github.com/tailored-agentic-units/alfred/observability"
	"github.com/tailored-agentic-units/alfred/server"
)

const (
	shutdownTimeout = 5 * time.Second
	metricsObserver = "prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent over HTTP",
	Long: `Starts an HTTP server exposing the Connect procedure
/alfred.v1.AgentService/Run, /healthz and Prometheus /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		runTimeout, _ := cmd.Flags().GetDuration("run-timeout")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := newLogger(cmd)
		prom := metrics.Default()

		observer, err := serveObserver(cfg.Observers, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		k, err := kernel.New(ctx, cfg, kernel.WithLogger(logger), kernel.WithObserver(observer))
		if err != nil {
			return fmt.Errorf("failed to create kernel: %w", err)
		}
		defer k.Close()

		srv := &http.Server{
			Addr: addr,
			Handler: server.New(k,
				server.WithLogger(logger),
				server.WithGatherer(prom.Registry()),
				server.WithRunTimeout(runTimeout),
			).Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("serving", "addr", addr, "tools", len(k.Tools()))
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return srv.Close()
			}
			return nil
		}
	},
}

// serveObserver combines the configured observers with the Prometheus
// observer backing /metrics, adding it only when the configuration does not
// already name it. Without configured observers events are logged to logger.
func serveObserver(names []string, logger *slog.Logger) (observability.Observer, error) {
	prom := metrics.Default()
	if len(names) == 0 {
		return observability.NewMultiObserver(observability.NewSlogObserver(logger), prom), nil
	}

	configured, err := observability.Resolve(names...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observers: %w", err)
	}
	if slices.Contains(names, metricsObserver) {
		return configured, nil
	}
	return observability.NewMultiObserver(configured, prom), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Duration("run-timeout", 5*time.Minute, "Maximum duration of a single run; 0 for no limit")
}

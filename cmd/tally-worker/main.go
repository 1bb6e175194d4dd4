package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/auth"
	"github.com/platinummonkey/tally/pkg/config"
	"github.com/platinummonkey/tally/pkg/database"
	"github.com/platinummonkey/tally/pkg/jobs"
	"github.com/platinummonkey/tally/pkg/observability"
)

var (
	trialSchedule   = flag.String("trial-schedule", jobs.DefaultTrialSchedule, "Cron schedule for ending lapsed Pro trials")
	sessionSchedule = flag.String("session-schedule", jobs.DefaultSessionSchedule, "Cron schedule for purging expired sessions")
	runOnce         = flag.Bool("run-once", false, "Run every job once and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).WithField("component", "worker")
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Worker stopped with an error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	runner := jobs.NewRunner(
		accounts.NewPostgresStore(db),
		auth.NewPostgresSessionStore(db, cfg.Auth.SessionTTL),
		metrics,
		logger,
	)

	// Run once mode (for cron-less deployments and testing)
	if *runOnce {
		return runner.RunAll(ctx)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if err := runner.Schedule(ctx, c, *trialSchedule, *sessionSchedule); err != nil {
		return err
	}

	opsMux := http.NewServeMux()
	observability.RegisterHealthRoutes(opsMux, observability.NewHealthChecker(db, nil))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(opsMux, registry)
	}
	opsServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           opsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	c.Start()
	logger.WithFields(map[string]interface{}{
		"trial_schedule":   *trialSchedule,
		"session_schedule": *sessionSchedule,
	}).Info("tally worker started")

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	// Wait for running jobs, then stop the health server
	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Worker stopped")
	return nil
}

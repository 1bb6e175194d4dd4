package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/api"
	"github.com/platinummonkey/tally/pkg/auth"
	"github.com/platinummonkey/tally/pkg/billing"
	"github.com/platinummonkey/tally/pkg/clients"
	"github.com/platinummonkey/tally/pkg/config"
	"github.com/platinummonkey/tally/pkg/database"
	"github.com/platinummonkey/tally/pkg/invoice"
	"github.com/platinummonkey/tally/pkg/logos"
	"github.com/platinummonkey/tally/pkg/mail"
	"github.com/platinummonkey/tally/pkg/middleware"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/projects"
	"github.com/platinummonkey/tally/pkg/render"
)

var version = "dev"

const dbStatsInterval = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("tally stopped with an error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return err
	}
	shutdown.RegisterShutdownFunc("tracing", func(ctx context.Context) error {
		return observability.ShutdownTracing(ctx, tp, logger)
	})

	db, err := database.Open(ctx, database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	shutdown.RegisterShutdownFunc("database", func(context.Context) error { return db.Close() })
	logger.Info("Connected to PostgreSQL")

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, db, logger.Entry()); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	go database.ReportStats(ctx, db, dbStatsInterval, func(s sql.DBStats) { metrics.RecordDBStats(s) })

	redisClient, limiter, err := buildLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error { return redisClient.Close() })
	}

	mailer, err := buildMailer(cfg, logger)
	if err != nil {
		return err
	}

	accountStore := accounts.NewPostgresStore(db)
	deps := api.Dependencies{
		Accounts:     accountStore,
		Sessions:     auth.NewPostgresSessionStore(db, cfg.Auth.SessionTTL),
		Limiter:      limiter,
		Clients:      clients.NewPostgresStore(db),
		Projects:     projects.NewPostgresStore(db),
		Invoices:     invoice.NewPostgresStore(db),
		Renderer:     render.NewPDFRenderer(),
		Mailer:       mailer,
		MailFrom:     cfg.Mail.From,
		Metrics:      metrics,
		Logger:       logger,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}

	checker := observability.NewHealthChecker(db, redisClient).WithVersion(version)

	if cfg.S3.Enabled() {
		objects, err := logos.NewS3Store(ctx, cfg.S3.Config)
		if err != nil {
			return err
		}
		deps.Logos = logos.NewService(logos.NewCachedStore(objects, cfg.S3.CacheSize, cfg.S3.CacheTTL))
		checker.AddCheck("s3", func(ctx context.Context) error {
			_, err := objects.Get(ctx, "healthcheck")
			if errors.Is(err, logos.ErrNotFound) {
				return nil
			}
			return err
		})
		logger.WithField("bucket", cfg.S3.Bucket).Info("Logo storage enabled")
	} else {
		logger.Warn("TALLY_S3_BUCKET not set, logo upload disabled")
	}

	if cfg.Stripe.WebhookSecret != "" {
		deps.Billing = billing.NewProcessor(accountStore, billing.NewPostgresEventLog(db), cfg.Stripe.WebhookSecret, logger.Entry()).
			WithTolerance(cfg.Stripe.Tolerance)
	} else {
		logger.Warn("TALLY_STRIPE_WEBHOOK_SECRET not set, billing webhook disabled")
	}

	server := api.NewServer(deps)
	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	opsMux := http.NewServeMux()
	observability.RegisterHealthRoutes(opsMux, checker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(opsMux, registry)
	}
	opsServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           opsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown.AddServer(apiServer)
	shutdown.AddServer(opsServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Infof("Starting tally API %s", version)
		return listen(apiServer)
	})
	g.Go(func() error {
		logger.WithField("addr", opsServer.Addr).Info("Starting health and metrics server")
		return listen(opsServer)
	})
	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("tally stopped")
	return nil
}

func listen(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s: %w", server.Addr, err)
	}
	return nil
}

// buildLimiter shares login throttling through Redis when it is configured
// and falls back to an in-process limiter otherwise.
func buildLimiter(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*redis.Client, middleware.Limiter, error) {
	limit := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.Auth.LoginAttempts,
		WindowDuration:    cfg.Auth.LoginWindow,
	}

	if cfg.Redis.URL == "" {
		logger.Warn("TALLY_REDIS_URL not set, login throttling is per instance")
		limiter := middleware.NewRateLimiter(limit)
		limiter.StartCleanup(ctx)
		return nil, limiter, nil
	}

	client, err := database.OpenRedis(ctx, database.RedisConfig{
		URL:      cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to Redis")
	return client, middleware.NewDistributedRateLimiter(client, limit, "tally:login"), nil
}

func buildMailer(cfg *config.Config, logger *observability.Logger) (mail.Sender, error) {
	if cfg.Mail.Provider == config.MailProviderResend {
		return mail.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.ResendURL)
	}
	logger.Warn("Mail provider is log, invoice emails are not delivered")
	return mail.NewLogSender(logger.Entry()), nil
}

// Package observability provides structured logging, Prometheus metrics,
// health checks, OpenTelemetry tracing and graceful shutdown.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("invoice_id", id).Info("Invoice created")
//
// Request-scoped logging:
//
//	observability.FromContext(r.Context()).WithError(err).Error("Render failed")
//
// Packages that take a logrus.FieldLogger receive logger.Entry().
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	metrics.ObserveRender("pdf", time.Since(start), err)
//	metrics.PlanDenialsTotal.WithLabelValues("invoice").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	checker.AddCheck("s3", logoStore.HealthCheck)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability

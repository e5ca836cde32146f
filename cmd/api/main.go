package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vaxtrack/vaxtrack-platform/internal/api/router"
	"github.com/vaxtrack/vaxtrack-platform/internal/appointments"
	appconfig "github.com/vaxtrack/vaxtrack-platform/internal/config"
	"github.com/vaxtrack/vaxtrack-platform/internal/hospitals"
	"github.com/vaxtrack/vaxtrack-platform/internal/observability/metrics"
	"github.com/vaxtrack/vaxtrack-platform/internal/refdata"
	"github.com/vaxtrack/vaxtrack-platform/internal/reports"
	"github.com/vaxtrack/vaxtrack-platform/internal/users"
	"github.com/vaxtrack/vaxtrack-platform/internal/vaccines"
	"github.com/vaxtrack/vaxtrack-platform/pkg/logging"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting vaxtrack API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
	} else {
		logger.Warn("REDIS_ADDR not set, report caching disabled")
	}

	// Repositories
	hospitalsRepo := hospitals.NewRepository(pool)
	vaccinesRepo := vaccines.NewRepository(pool)
	usersRepo := users.NewRepository(pool)
	appointmentsRepo := appointments.NewRepository(pool)

	// Reference data cache backing the appointment joins
	refCache := refdata.NewCache(hospitalsRepo, vaccinesRepo, usersRepo, cfg.RefDataCacheTTL)

	// Reporting
	aggregator := reports.NewAggregator(appointmentsRepo, usersRepo, vaccinesRepo, hospitalsRepo)
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	// Services. Appointment writes drop cached reports so dashboards pick up
	// the change on the next request.
	appointmentsSvc := appointments.NewService(appointmentsRepo, refCache, reportCache, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reportMetrics := metrics.NewReportMetrics(registry)

	routerCfg := &router.Config{
		Logger:              logger,
		HospitalsHandler:    hospitals.NewHandler(hospitalsRepo, logger),
		VaccinesHandler:     vaccines.NewHandler(vaccinesRepo, logger),
		UsersHandler:        users.NewHandler(usersRepo, logger),
		AppointmentsHandler: appointments.NewHandler(appointmentsSvc, logger),
		ReportsHandler:      reports.NewHandler(aggregator, reportCache, reportMetrics, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // zone data for minimal container images

	"github.com/oa-device/oaParkingMonitor/internal/aggregation"
	corecfg "github.com/oa-device/oaParkingMonitor/internal/core/config"
	"github.com/oa-device/oaParkingMonitor/internal/core/registry"
	"github.com/oa-device/oaParkingMonitor/internal/core/storage/postgres"
	"github.com/oa-device/oaParkingMonitor/internal/ingestion"
	"github.com/oa-device/oaParkingMonitor/internal/migrations"
	"github.com/oa-device/oaParkingMonitor/internal/retrieval"
	"github.com/oa-device/oaParkingMonitor/internal/server"
)

func main() {
	configPath := flag.String("config", "oaparking.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"address", fmtAddr(cfg.Server.Host, cfg.Server.Port),
		"auto_migrate", cfg.Database.AutoMigrate,
		"aggregation_enabled", cfg.Aggregation.Enabled,
	)

	interval, err := time.ParseDuration(cfg.Aggregation.EffectiveInterval())
	if err != nil {
		slog.Error("Invalid aggregation interval", "value", cfg.Aggregation.EffectiveInterval(), "error", err)
		os.Exit(1)
	}

	parameter, err := buildRunParameter(cfg.Aggregation)
	if err != nil {
		slog.Error("Invalid aggregation settings", "error", err)
		os.Exit(1)
	}

	// 2. Run Database Migrations
	// The storage adapter validates the schema on startup, so migrate first.
	if err := migrations.RunMigrations(cfg.Database.DSN, cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 2.1. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	binStore := postgres.NewBinAdapter(dbAdapter.DB())
	watermarkStore := postgres.NewWatermarkAdapter(dbAdapter.DB())

	// 3. Initialize Site Registry
	siteRegistry, err := registry.NewSiteRegistry(cfg.Registry.Path)
	if err != nil {
		slog.Error("Failed to load site registry", "path", cfg.Registry.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("Site registry loaded", "path", cfg.Registry.Path, "sites", siteRegistry.Len())

	// 4. Initialize Aggregation (watermark-driven batch processing)
	runner := aggregation.NewRunner(dbAdapter, binStore, watermarkStore, parameter)
	scheduler := aggregation.NewScheduler(interval, runner)
	triggerSvc := aggregation.NewTriggerService(runner)

	slog.Info("Aggregation runner initialized",
		"interval", interval,
		"enabled", cfg.Aggregation.Enabled,
		"worker_count", parameter.WorkerCount,
		"retry_attempts", parameter.RetryAttempts,
		"retention_age", parameter.RetentionAge,
	)

	// 5. Initialize Ingestion (camera upload API)
	ingestionSvc := ingestion.NewService(siteRegistry, dbAdapter, cfg.Server.MaxBodySizeMB)

	// 6. Initialize Retrieval (query API)
	retrievalSvc := retrieval.NewService(dbAdapter, binStore)

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)

	// Everything except /health sits behind the shared-credential check.
	authed := srv.Engine.Group("/", ingestion.HeaderAuth(cfg.Auth.APIKey, cfg.Auth.SecretKey))
	ingestionSvc.RegisterRoutes(authed)
	retrievalSvc.RegisterRoutes(authed)
	triggerSvc.RegisterRoutes(authed)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start aggregation scheduler in background if enabled
	if cfg.Aggregation.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Aggregation scheduler disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// buildRunParameter maps aggregation config onto runner settings. Empty or
// zero fields keep the runner defaults.
func buildRunParameter(cfg corecfg.AggregationConfig) (aggregation.RunParameter, error) {
	parameter := aggregation.DefaultRunParameter()
	if cfg.WorkerCount > 0 {
		parameter.WorkerCount = cfg.WorkerCount
	}
	if cfg.RetryAttempts > 0 {
		parameter.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBaseDelay != "" {
		delay, err := time.ParseDuration(cfg.RetryBaseDelay)
		if err != nil {
			return aggregation.RunParameter{}, fmt.Errorf("invalid aggregation.retry_base_delay: %w", err)
		}
		parameter.RetryBaseDelay = delay
	}
	if cfg.RetentionAge != "" {
		spec, err := aggregation.ParseWindowSize(cfg.RetentionAge)
		if err != nil {
			return aggregation.RunParameter{}, fmt.Errorf("invalid aggregation.retention_age: %w", err)
		}
		parameter.RetentionAge = spec.Size
	}

	lookbacks := []struct {
		key    string
		raw    string
		target *time.Duration
	}{
		{"hour", cfg.Lookback.Hour, &parameter.Lookbacks.Hour},
		{"day", cfg.Lookback.Day, &parameter.Lookbacks.Day},
		{"week", cfg.Lookback.Week, &parameter.Lookbacks.Week},
		{"month", cfg.Lookback.Month, &parameter.Lookbacks.Month},
		{"year", cfg.Lookback.Year, &parameter.Lookbacks.Year},
	}
	for _, lookback := range lookbacks {
		if lookback.raw == "" {
			continue
		}
		spec, err := aggregation.ParseWindowSize(lookback.raw)
		if err != nil {
			return aggregation.RunParameter{}, fmt.Errorf("invalid aggregation.lookback.%s: %w", lookback.key, err)
		}
		*lookback.target = spec.Size
	}

	return parameter, nil
}

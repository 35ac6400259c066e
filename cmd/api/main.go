package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/coaltrack/coaltrack-backend/api/routes"
	"github.com/coaltrack/coaltrack-backend/internal/allocation"
	"github.com/coaltrack/coaltrack-backend/internal/exports"
	"github.com/coaltrack/coaltrack-backend/internal/investors"
	"github.com/coaltrack/coaltrack-backend/internal/mappings"
	"github.com/coaltrack/coaltrack-backend/internal/stats"
	"github.com/coaltrack/coaltrack-backend/internal/suppliers"
	"github.com/coaltrack/coaltrack-backend/internal/supplies"
	"github.com/coaltrack/coaltrack-backend/pkg/config"
	"github.com/coaltrack/coaltrack-backend/pkg/db"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	"github.com/coaltrack/coaltrack-backend/pkg/logger"
	"github.com/coaltrack/coaltrack-backend/pkg/metrics"
	"github.com/coaltrack/coaltrack-backend/pkg/migrate"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox"
	"github.com/coaltrack/coaltrack-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	allocationMetrics := metrics.NewAllocationMetrics(registry)

	gormDB := dbClient.DB()
	supplierRepo := suppliers.NewRepository(gormDB)
	supplyRepo := supplies.NewRepository(gormDB)
	exportRepo := exports.NewRepository(gormDB)
	investorRepo := investors.NewRepository(gormDB)
	mappingRepo := mappings.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	supplierService := suppliers.NewService(supplierRepo, supplyRepo)

	supplyService, err := supplies.NewService(supplies.ServiceParams{
		Tx:        dbClient,
		Repo:      supplyRepo,
		Suppliers: supplierRepo,
		Mappings:  mappingRepo,
		Events:    outboxService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create supply service", err)
		os.Exit(1)
	}

	exportService, err := exports.NewService(exports.ServiceParams{
		Tx:        dbClient,
		Repo:      exportRepo,
		Investors: investorRepo,
		Events:    outboxService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create export service", err)
		os.Exit(1)
	}

	investorService := investors.NewService(investorRepo, exportRepo)
	mappingService := mappings.NewService(mappingRepo)
	statsService := stats.NewService(supplierRepo, supplyRepo, exportRepo, mappingRepo)

	validator := allocation.NewValidator(supplyRepo, exportRepo, mappingRepo)

	defaultStrategy, err := enums.ParseAllocationStrategy(cfg.Allocation.DefaultStrategy)
	if err != nil {
		logg.Error(context.Background(), "invalid default allocation strategy", err)
		os.Exit(1)
	}

	engine, err := allocation.NewEngine(allocation.EngineParams{
		Tx:              dbClient,
		Supplies:        supplyRepo,
		Exports:         exportRepo,
		Mappings:        mappingRepo,
		Events:          outboxService,
		Metrics:         allocationMetrics,
		Logger:          logg,
		MaxSuggestions:  cfg.Allocation.MaxSuggestions,
		DefaultStrategy: defaultStrategy,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create allocation engine", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Suppliers: supplierService,
			Supplies:  supplyService,
			Exports:   exportService,
			Investors: investorService,
			Mappings:  mappingService,
			Stats:     statsService,
			Validator: validator,
			Engine:    engine,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

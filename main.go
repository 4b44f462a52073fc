package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/settlementdash/backend/src/config"
	"github.com/username/settlementdash/backend/src/database"
	"github.com/username/settlementdash/backend/src/datasource"
	"github.com/username/settlementdash/backend/src/handlers"
	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/model"
	"github.com/username/settlementdash/backend/src/security"
	"github.com/username/settlementdash/backend/src/services"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Settlement dashboard backend starting...")

	if err := config.Cfg.Validate(); err != nil {
		logger.L.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	defer database.DB.Close()
	logger.L.Info("Database initialized successfully.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		source datasource.Source
		writer services.TransactionWriter
	)
	switch config.Cfg.DataSource {
	case config.DataSourcePostgres:
		logger.L.Info("Connecting to PostgreSQL data source...", "host", config.Cfg.PostgresHost, "db", config.Cfg.PostgresDBName, "table", config.Cfg.TransactionsTable)
		pg, err := datasource.NewPostgresSource(ctx, config.Cfg.PostgresURL(), config.Cfg.TransactionsTable)
		if err != nil {
			logger.L.Error("Failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		source = pg
	default:
		logger.L.Info("Using SQLite data source", "table", config.Cfg.TransactionsTable)
		source = datasource.NewSQLiteSource(database.DB, config.Cfg.TransactionsTable)
		writer = datasource.NewWriter(database.DB, config.Cfg.TransactionsTable)
	}

	logger.L.Info("Initializing caches...")
	datasetCache := cache.New(config.Cfg.DatasetCacheTTL, config.Cfg.CacheCleanupInterval)
	revokedTokens := cache.New(config.Cfg.AccessTokenExpiry, config.Cfg.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry, revokedTokens)
	userStore := model.NewUserStore(database.DB)
	reportService := services.NewReportService(source, datasetCache, services.ReportServiceOptions{
		DatasetTTL: config.Cfg.DatasetCacheTTL,
		Location:   config.Cfg.Location,
		Writer:     writer,
	})

	router := handlers.NewRouter(
		handlers.RouterConfig{
			AllowedOrigins: config.Cfg.AllowedOrigins,
			RateLimitRPS:   config.Cfg.RateLimitRPS,
			RateLimitBurst: config.Cfg.RateLimitBurst,
			RequestTimeout: 30 * time.Second,
		},
		handlers.NewUserHandler(authService, userStore),
		handlers.NewReportHandler(reportService),
		handlers.NewUploadHandler(reportService, config.Cfg.MaxUploadSizeBytes),
	)

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.L.Info("Shutdown signal received, draining connections...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logger.L.Info("Server starting", "address", serverAddr, "dataSource", config.Cfg.DataSource, "importsEnabled", reportService.CanImport())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	logger.L.Info("Server stopped gracefully.")
}

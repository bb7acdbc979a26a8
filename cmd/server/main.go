package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpattn/wholesale/internal/config"
	"github.com/rpattn/wholesale/internal/db"
	"github.com/rpattn/wholesale/internal/export"
	"github.com/rpattn/wholesale/internal/ingestion"
	"github.com/rpattn/wholesale/internal/repository"
	"github.com/rpattn/wholesale/internal/workbook"
	"github.com/rpattn/wholesale/pkg/logger"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New(logger.Config{Env: "production"})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbConfig := cfg.DB()
	if cfg.Database.Migrations {
		if err := db.RunMigrations(dbConfig); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	conn, err := db.NewConnection(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	companyRepo := repository.NewCompanyRepository(conn.Pool)
	catalogRepo := repository.NewCatalogRepository(conn.Pool)
	exportRepo := repository.NewWorkbookExportRepository(conn.Pool)
	importLogRepo := repository.NewImportLogRepository(conn.Pool)

	exportService := export.NewService(companyRepo, catalogRepo, exportRepo,
		export.WithLogger(log.With().Str("component", "export").Logger()),
		export.WithBuilder(workbook.NewBuilder(workbook.WithCurrencyFormat(cfg.Workbook.CurrencyFormat))),
		export.WithFilenamePrefix(cfg.Workbook.FilenamePrefix),
	)
	importService := ingestion.NewService(companyRepo, catalogRepo, exportRepo, importLogRepo,
		ingestion.WithLogger(log.With().Str("component", "import").Logger()),
	)

	router := newRouter(routerDeps{
		exports:        exportService,
		imports:        importService,
		catalog:        catalogRepo,
		logger:         log,
		allowedOrigins: cfg.CORS.AllowedOrigins,
		maxUploadBytes: cfg.HTTP.MaxUploadBytes,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("starting order workbook server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"trackify/internal/amqp"
	"trackify/internal/auth"
	"trackify/internal/config"
	google "trackify/internal/export/google"
	"trackify/internal/httpapi"
	"trackify/internal/ledger"
	applog "trackify/internal/log"
	"trackify/internal/storage"
	"trackify/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "trackify",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()
	logger.Info("Database ready", "path", cfg.SQLiteDBPath)

	// The AMQP audit pipeline and the sheets export are both optional:
	// without them mutations simply are not published anywhere.
	var events ledger.Publisher
	var amqpClient *amqp.Client
	if cfg.AuditEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("Audit pipeline connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	var exporter worker.RowAppender
	if cfg.ExportEnabled() {
		exp, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.SheetsSpreadsheetID,
			SheetName:       cfg.SheetsSheetName,
			CredentialsJSON: cfg.SheetsCredentialsJSON,
			CredentialsFile: cfg.SheetsCredentialsFile,
		})
		if err != nil {
			return err
		}
		exporter = exp
		logger.Info("Sheets export enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	}

	provider := auth.NewTokenProvider(cfg.JWTSecret, cfg.SessionTTL, repo)
	registry := ledger.NewRegistry(repo, events, logger)
	defer registry.Close()

	server := httpapi.NewServer(":"+cfg.Port, provider, registry, logger)

	server.ReadTimeout = 15 * time.Second
	server.WriteTimeout = 15 * time.Second
	server.IdleTimeout = 60 * time.Second

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// Expired sessions are swept out so abandoned controllers do not pile up.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				if n := registry.Sweep(now); n > 0 {
					logger.Info("Swept expired sessions", "count", n)
				}
			}
		}
	})

	if amqpClient != nil {
		exportWorker := worker.NewExportWorker(amqpClient, exporter)
		g.Go(func() error {
			if err := exportWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

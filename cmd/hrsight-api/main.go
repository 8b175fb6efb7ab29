package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hrsight/hrsight/internal/api"
	"github.com/hrsight/hrsight/internal/audit"
	auditpostgres "github.com/hrsight/hrsight/internal/audit/postgres"
	"github.com/hrsight/hrsight/internal/config"
	"github.com/hrsight/hrsight/internal/llm"
	"github.com/hrsight/hrsight/internal/observability"
	"github.com/hrsight/hrsight/internal/pipeline"
	"github.com/hrsight/hrsight/internal/query"
	duckdbengine "github.com/hrsight/hrsight/internal/query/duckdb"
	sqliteengine "github.com/hrsight/hrsight/internal/query/sqlite"
	"github.com/hrsight/hrsight/internal/schema"
	"github.com/hrsight/hrsight/internal/storage"
	s3store "github.com/hrsight/hrsight/internal/storage/s3"
	"github.com/hrsight/hrsight/internal/templates"
)

func main() {
	cfg, err := config.LoadFromEnv("hrsight-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx := context.Background()

	engine, dialect, err := newEngine(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize query engine", slog.Any("error", err))
		os.Exit(1)
	}

	generator, err := llm.New(llm.Config{
		Backend: cfg.Generator.Backend,
		Remote: llm.OpenAIConfig{
			BaseURL: cfg.Generator.RemoteBaseURL,
			APIKey:  cfg.Generator.RemoteAPIKey,
			Model:   cfg.Generator.RemoteModel,
			Timeout: cfg.Generator.Timeout,
		},
		Local: llm.OllamaConfig{
			BaseURL: cfg.Generator.LocalBaseURL,
			Model:   cfg.Generator.LocalModel,
			Timeout: cfg.Generator.Timeout,
		},
		Gemini: llm.GeminiConfig{
			APIKey: cfg.Generator.GeminiAPIKey,
			Model:  cfg.Generator.GeminiModel,
		},
	})
	if err != nil {
		logger.Error("failed to initialize generator", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Generator.Backend == llm.BackendRemote && cfg.Generator.RemoteAPIKey == "" {
		logger.Warn("remote generator api key is not set; questions will fail until it is configured")
	}

	matcher, err := templates.Default()
	if err != nil {
		logger.Error("failed to load templates", slog.Any("error", err))
		os.Exit(1)
	}

	questions, err := pipeline.New(pipeline.Config{
		MemoryTurns:       cfg.Pipeline.MemoryTurns,
		PreviewRows:       cfg.Pipeline.PreviewRows,
		DefaultLimit:      cfg.Pipeline.DefaultLimit,
		RowLimit:          cfg.Dataset.RowLimit,
		AnswerTemperature: cfg.Generator.AnswerTemperature,
		Dialect:           dialect,
	}, pipeline.Dependencies{
		Generator: generator,
		Engine:    engine,
		Templates: matcher,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to initialize pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	var auditStore audit.Store
	if cfg.Audit.Enabled {
		auditDB, err := auditpostgres.Open(ctx, auditpostgres.DBConfig{
			DSN:             cfg.Audit.DSN,
			MaxOpenConns:    cfg.Audit.MaxOpenConns,
			MaxIdleConns:    cfg.Audit.MaxIdleConns,
			ConnMaxIdleTime: cfg.Audit.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Audit.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open audit db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = auditDB.Close() }()
		auditStore = auditpostgres.NewRepository(auditDB)
	}

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:   logger,
		Pipeline: questions,
		Audit:    auditStore,
		Readiness: api.CombineReadinessChecks(
			api.CheckDataset(engine, schema.EmployeesTable),
			api.CheckAudit(auditStore),
		),
		DependencyTimeout: 5 * time.Second,
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("engine", cfg.Dataset.Engine),
			slog.String("generator", cfg.Generator.Backend),
			slog.Bool("audit", cfg.Audit.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func newEngine(ctx context.Context, cfg config.Config) (query.Engine, string, error) {
	switch cfg.Dataset.Engine {
	case config.EngineSQLite:
		engine, err := sqliteengine.NewEngine(cfg.Dataset.Path, schema.EmployeesTable)
		return engine, "SQLite", err
	case config.EngineDuckDB:
		var store storage.ObjectStore
		if cfg.ObjectStore.Enabled {
			s3, err := s3store.New(ctx, s3store.Config{
				Endpoint:         cfg.ObjectStore.Endpoint,
				Region:           cfg.ObjectStore.Region,
				Bucket:           cfg.ObjectStore.Bucket,
				AccessKeyID:      cfg.ObjectStore.AccessKeyID,
				SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
				UseSSL:           cfg.ObjectStore.UseSSL,
				Prefix:           cfg.ObjectStore.Prefix,
				AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
			})
			if err != nil {
				return nil, "", fmt.Errorf("initialize object store: %w", err)
			}
			store = s3
		}
		engine, err := duckdbengine.NewEngine(store, duckdbengine.Source{
			Table:     schema.EmployeesTable,
			Format:    cfg.Dataset.Format,
			Path:      cfg.Dataset.Path,
			ObjectKey: cfg.Dataset.ObjectKey,
		})
		return engine, "DuckDB", err
	default:
		return nil, "", fmt.Errorf("unsupported dataset engine %q", cfg.Dataset.Engine)
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/platform/gemini"
	"github.com/phrazzld/scry-tutor/internal/platform/memory"
	"github.com/phrazzld/scry-tutor/internal/platform/postgres"
	"github.com/phrazzld/scry-tutor/internal/scoring"
	"github.com/phrazzld/scry-tutor/internal/service"
	"github.com/phrazzld/scry-tutor/internal/service/card_review"
	"github.com/phrazzld/scry-tutor/internal/store"
	"github.com/phrazzld/scry-tutor/internal/task"
	"github.com/phrazzld/scry-tutor/internal/validation"
)

// application holds the wired services and the resources they own.
type application struct {
	config *config.Config
	logger *slog.Logger

	db         *sql.DB // nil with the in-memory stores
	stores     store.Stores
	transactor store.Transactor

	queue *task.TaskQueue
	pool  *task.WorkerPool

	reviewService card_review.Service
	cardService   service.CardService
	statsHandler  *service.StatsHandler
}

// newApplication wires every component from cfg. The worker pool is
// started; call cleanup to release it.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: log}

	if err := app.setupStorage(ctx); err != nil {
		return nil, err
	}

	embedder, judge, err := setupScoring(ctx, cfg.LLM, log)
	if err != nil {
		app.closeDB()
		return nil, err
	}

	cascade, err := setupCascade(cfg.Validation, embedder, judge, log)
	if err != nil {
		app.closeDB()
		return nil, err
	}

	app.queue = task.NewTaskQueue(cfg.Tasks.QueueSize, log)
	poolCfg := task.DefaultWorkerPoolConfig()
	poolCfg.WorkerCount = cfg.Tasks.WorkerCount
	app.pool = task.NewWorkerPool(app.queue, poolCfg, log)

	// Handlers run synchronously on the bus; the async emitter moves them
	// off the request path onto the worker pool.
	bus := events.NewInMemoryEventEmitter(log)
	app.statsHandler = service.NewStatsHandler(app.stores, app.transactor, log)
	bus.RegisterHandler(app.statsHandler)
	emitter := task.NewAsyncEmitter(bus, app.queue, log)

	app.reviewService = card_review.NewService(card_review.Dependencies{
		Cards:      app.stores.Cards,
		Transactor: app.transactor,
		Validator:  cascade,
		Scheduler:  srs.NewDefaultService(),
		Emitter:    emitter,
	}, cfg.Review, log)

	app.cardService, err = service.NewCardService(service.CardServiceDeps{
		Stores:     app.stores,
		Transactor: app.transactor,
		Embedder:   embedder,
		Queue:      app.queue,
		Emitter:    emitter,
	}, log)
	if err != nil {
		app.closeDB()
		return nil, fmt.Errorf("failed to create card service: %w", err)
	}

	app.pool.Start()
	return app, nil
}

// setupStorage selects Postgres when a database URL is configured and the
// in-memory stores otherwise.
func (app *application) setupStorage(ctx context.Context) error {
	cfg := app.config.Database
	if cfg.URL == "" {
		app.logger.Warn("no database configured, using in-memory stores")
		mem := memory.New()
		app.stores = mem.Stores()
		app.transactor = mem
		return nil
	}

	db, err := setupAppDatabase(ctx, cfg, app.logger)
	if err != nil {
		return err
	}
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, cfg.MigrationsTable, app.logger); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	pg := postgres.NewStores(db, app.logger)
	app.db = db
	app.stores = pg.Stores()
	app.transactor = pg
	return nil
}

// setupScoring builds the Gemini embedder and judge. Without an API key the
// embedder is nil and the heuristic judge stands in.
func setupScoring(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (scoring.Embedder, scoring.Judge, error) {
	if cfg.GeminiAPIKey == "" {
		log.Warn("no Gemini API key configured, using the heuristic judge without embeddings")
		return nil, scoring.NewHeuristicJudge(), nil
	}

	client, err := gemini.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := gemini.NewEmbedder(client.Models, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	judge, err := gemini.NewJudge(client.Models, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create judge: %w", err)
	}
	return embedder, judge, nil
}

// setupCascade orders the tiers exact, embedding (when available), then
// generative.
func setupCascade(
	cfg config.ValidationConfig,
	embedder scoring.Embedder,
	judge scoring.Judge,
	log *slog.Logger,
) (*validation.Cascade, error) {
	tiers := []validation.Scorer{validation.NewExactTier()}

	if embedder != nil {
		tier, err := validation.NewEmbeddingTier(embedder, validation.EmbeddingTierConfig{
			Threshold:           cfg.EmbeddingThreshold,
			BorderlineThreshold: cfg.BorderlineThreshold,
			CacheSize:           cfg.EmbeddingCacheSize,
			CallTimeout:         cfg.TierTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding tier: %w", err)
		}
		tiers = append(tiers, tier)
	}

	generative, err := validation.NewGenerativeTier(judge)
	if err != nil {
		return nil, fmt.Errorf("failed to create generative tier: %w", err)
	}
	tiers = append(tiers, generative)

	cascade, err := validation.NewCascade(log, validation.CascadeOptions{
		FallbackOnTierError: cfg.FallbackOnTierError,
		TierTimeout:         cfg.TierTimeout,
	}, tiers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation cascade: %w", err)
	}
	return cascade, nil
}

// cleanup drains background work and closes the database. Queued tasks
// still run; ctx bounds the wait.
func (app *application) cleanup(ctx context.Context) error {
	var errs []error

	app.queue.Close()
	if err := app.pool.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *application) closeDB() {
	if app.db != nil {
		_ = app.db.Close()
	}
}

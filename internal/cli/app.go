package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lucasnoah/mediawar/internal/agent"
	"github.com/lucasnoah/mediawar/internal/config"
	"github.com/lucasnoah/mediawar/internal/db"
	"github.com/lucasnoah/mediawar/internal/gateway"
	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/pipeline"
)

// app is the wiring shared by commands that drive a run.
type app struct {
	cfg     *config.Config
	ctrl    *pipeline.Controller
	backend history.Backend
}

func (a *app) Close() error {
	return a.backend.Close()
}

// newApp builds the gateway, agents, history backend and controller from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	key := config.APIKey()
	if key == "" {
		return nil, errors.New("no API key: set GEMINI_API_KEY or GOOGLE_API_KEY")
	}
	client, err := gateway.NewGenAIClient(ctx, key)
	if err != nil {
		return nil, err
	}
	gw := gateway.New(client, gateway.Options{
		Attempts:  cfg.Retry.Attempts,
		BaseDelay: cfg.BaseDelay(),
		Logger:    logger.Named("gateway"),
	})

	workdir, _ := os.Getwd()
	stages := agent.New(gw, cfg, workdir, logger.Named("agent"))

	backend, database, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newAppWith(ctx, cfg, stages, backend, database), nil
}

// newAppWith wires a controller over already-built stages and backend.
// database, when non-nil, also records run events.
func newAppWith(ctx context.Context, cfg *config.Config, stages pipeline.Stages, backend history.Backend, database *db.DB) *app {
	store := pipeline.NewStore(pipeline.StoreOptions{
		MaxLogEntries: cfg.Log.MaxEntries,
		Logger:        logger.Named("run"),
	})
	if cfg.Steppable {
		_ = store.SetSteppable(true) // a fresh store is idle
	}
	opts := pipeline.Options{
		Pace:             cfg.Timing,
		WriterModel:      cfg.Agents.Writer.Model,
		ImageConcurrency: cfg.Images.Concurrency,
		Logger:           logger.Named("pipeline"),
	}
	if database != nil {
		opts.Recorder = database
	}
	ctrl := pipeline.NewController(store, stages, pipeline.NewArchive(backend, store, logger.Named("history")), opts)
	if err := ctrl.Archive().Load(ctx); err != nil {
		logger.Warn("history unavailable", zap.Error(err))
	}
	return &app{cfg: cfg, ctrl: ctrl, backend: backend}
}

// openHistory opens the configured history backend. For sqlite the same
// database is returned so it can record run events.
func openHistory(ctx context.Context, cfg *config.Config) (history.Backend, *db.DB, error) {
	switch cfg.History.Backend {
	case config.BackendNone:
		return history.Disabled{}, nil, nil
	case config.BackendPostgres:
		pg, err := history.OpenPostgres(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, nil, nil
	default:
		d, err := openSQLite(cfg)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	}
}

// openSQLite opens and migrates the local database.
func openSQLite(cfg *config.Config) (*db.DB, error) {
	path := cfg.History.Path
	if path == "" {
		p, err := db.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("db path: %w", err)
		}
		path = p
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

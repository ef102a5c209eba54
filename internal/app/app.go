// Package app wires storage, identity and the planner engine from a Config.
package app

import (
	"context"
	"fmt"
	"log"

	"plannr/internal/config"
	"plannr/internal/identity"
	"plannr/internal/repository"
	"plannr/internal/service"
	"plannr/internal/storage"
)

// App is an opened planner with its collaborators.
type App struct {
	Config   config.Config
	Store    *storage.Store
	Identity *identity.Provider
	Planner  *service.Planner
	Reminder *service.ReminderService

	close func() error
}

// Open connects the configured backend and loads the planner state.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	backend, closeFn, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	store := storage.New(backend, cfg.StorageQuota)
	if err := store.Init(ctx); err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	ident := identity.NewProvider(ctx, store, nil)
	planner := service.NewPlanner(store, ident, service.Options{
		Location:    cfg.Location,
		SeedSamples: cfg.SeedSamples,
	})
	if err := planner.Open(ctx); err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("open planner: %w", err)
	}

	return &App{
		Config:   cfg,
		Store:    store,
		Identity: ident,
		Planner:  planner,
		Reminder: service.NewReminderService(planner),
		close:    closeFn,
	}, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

func openBackend(cfg config.Config) (storage.Backend, func() error, error) {
	if cfg.InMemory() {
		log.Printf("[info] using in-memory storage, nothing will be persisted")
		return storage.NewMemoryBackend(), func() error { return nil }, nil
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	return repository.NewRecordRepository(db), func() error { return repository.Close(db) }, nil
}

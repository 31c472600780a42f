// Package repository selects the metadata backend configured for the service.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/YugenJarwal13/InternalDMS/internal/config"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/repository/badger"
	"github.com/YugenJarwal13/InternalDMS/internal/repository/memory"
	"github.com/YugenJarwal13/InternalDMS/internal/repository/postgres"
)

// Backend bundles the repositories of one metadata store.
type Backend struct {
	Tree     docsysRepo.TreeStore
	Users    repositories.UserRepository
	Teams    repositories.TeamRepository
	Activity repositories.ActivityRepository

	close func() error
}

// Close releases the underlying database.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the backend named by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.Store.Backend {
	case "memory":
		logger.Warn("using in-memory metadata store; data is lost on restart")
		return &Backend{
			Tree:     memory.NewTreeStore(),
			Users:    memory.NewUserRepository(),
			Teams:    memory.NewTeamRepository(),
			Activity: memory.NewActivityRepository(),
		}, nil

	case "badger":
		db, err := badger.Open(ctx, badger.Config{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("badger store opened", "path", cfg.Badger.Path, "in_memory", cfg.Badger.InMemory)
		return &Backend{
			Tree:     badger.NewTreeStore(db),
			Users:    badger.NewUserRepository(db),
			Teams:    badger.NewTeamRepository(db),
			Activity: badger.NewActivityRepository(db),
			close:    db.Close,
		}, nil

	case "postgres":
		tables, err := postgres.NewTableNames(cfg.Postgres.TablePrefix)
		if err != nil {
			return nil, err
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.Postgres.URL, postgres.PoolOptions{
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("database connected", "table_prefix", cfg.Postgres.TablePrefix)

		repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
		return &Backend{
			Tree:     postgres.NewTreeStore(repoConfig),
			Users:    postgres.NewUserRepository(repoConfig),
			Teams:    postgres.NewTeamRepository(repoConfig),
			Activity: postgres.NewActivityRepository(repoConfig),
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
}

package storage

import (
	"context"
	"fmt"

	"github.com/marcelsud/bookshelf-api/book"
	"github.com/marcelsud/bookshelf-api/book/memory"
	"github.com/marcelsud/bookshelf-api/book/mongodb"
	"github.com/marcelsud/bookshelf-api/book/postgres"
	"github.com/marcelsud/bookshelf-api/book/redis"
	"github.com/marcelsud/bookshelf-api/config"
	"github.com/marcelsud/bookshelf-api/metrics"
)

// Store is a book repository that can also report per-category counts
type Store interface {
	book.Repository
	metrics.Collector
}

var (
	_ Store = (*mongodb.Repository)(nil)
	_ Store = (*redis.Repository)(nil)
	_ Store = (*postgres.Repository)(nil)
	_ Store = (*memory.Repository)(nil)
)

// Open connects to the backend named by cfg.StorageDriver
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "mongodb":
		repo, err := mongodb.NewRepository(ctx, cfg.MongoDBURI, cfg.MongoDBDatabase, cfg.MongoDBCollection)
		if err != nil {
			return nil, fmt.Errorf("opening mongodb: %w", err)
		}
		return repo, nil
	case "redis":
		repo, err := redis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("opening redis: %w", err)
		}
		return repo, nil
	case "postgres":
		repo, err := postgres.NewRepositoryWithPoolConfig(cfg.PostgresDSN,
			cfg.PostgresMaxOpenConns, cfg.PostgresMaxIdleConns, cfg.PostgresConnMaxLifeMinutes)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := repo.CreateTable(ctx); err != nil {
			repo.Close(ctx)
			return nil, err
		}
		return repo, nil
	case "memory":
		return memory.NewRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

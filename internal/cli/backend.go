package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrEthical07/goGate/session"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

// openBackend returns the configured session backend and a function that
// releases its connections.
func openBackend(ctx context.Context, cfg PersistenceFile, key string) (session.Backend, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case BackendFile:
		return session.NewFileBackend(cfg.Path), noop, nil

	case BackendMemory:
		return session.NewMemoryBackend(), noop, nil

	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("persistence.redis_url is required for the redis backend")
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		backend := session.NewRedisBackend(client, cfg.RedisPrefix, key, 0)
		if _, err := backend.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return backend, func() { _ = client.Close() }, nil

	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = "gatectl.db"
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := sql.Open("sqlite3", path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		backend := session.NewSQLBackend(db, key)
		if err := backend.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return backend, func() { _ = db.Close() }, nil

	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("persistence.postgres_dsn is required for the postgres backend")
		}
		poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		backend := session.NewPostgresBackend(pool, key)
		if err := backend.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return backend, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
	}
}

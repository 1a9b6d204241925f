package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS gate_sessions (
	key        TEXT PRIMARY KEY,
	payload    BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PgxQuerier is the subset of *pgxpool.Pool used by [PostgresBackend].
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores the blob in Postgres via pgx.
type PostgresBackend struct {
	pool PgxQuerier
	name string
	now  func() time.Time
}

// NewPostgresBackend returns a backend keyed by name.
func NewPostgresBackend(pool PgxQuerier, name string) *PostgresBackend {
	return &PostgresBackend{pool: pool, name: name, now: time.Now}
}

// EnsureSchema creates the gate_sessions table if needed.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := b.pool.QueryRow(ctx,
		`SELECT payload FROM gate_sessions WHERE key = $1`, b.name,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return payload, nil
}

func (b *PostgresBackend) Put(ctx context.Context, data []byte) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO gate_sessions (key, payload, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`, b.name, data, b.now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM gate_sessions WHERE key = $1`, b.name); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

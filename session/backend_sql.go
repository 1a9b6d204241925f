package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS gate_sessions (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLBackend stores the blob in a SQLite table through database/sql.
type SQLBackend struct {
	db   *sql.DB
	name string
	now  func() time.Time
}

// NewSQLBackend returns a backend keyed by name. Call [SQLBackend.EnsureSchema]
// once before use.
func NewSQLBackend(db *sql.DB, name string) *SQLBackend {
	return &SQLBackend{db: db, name: name, now: time.Now}
}

// EnsureSchema creates the gate_sessions table if needed.
func (b *SQLBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *SQLBackend) Get(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT payload FROM gate_sessions WHERE key = ?`, b.name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return payload, nil
}

func (b *SQLBackend) Put(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO gate_sessions (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, b.name, data, b.now().Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM gate_sessions WHERE key = ?`, b.name); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

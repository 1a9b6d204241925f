package session

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

// exerciseBackend runs the shared Backend contract against b.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("empty backend: expected ErrRecordNotFound, got %v", err)
	}
	if err := b.Delete(ctx); err != nil {
		t.Fatalf("delete on empty backend must be a no-op, got %v", err)
	}

	if err := b.Put(ctx, []byte("first")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Put(ctx, []byte("second")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err := b.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("expected overwrite to win, got %q", got)
	}

	if err := b.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Get(ctx); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("after delete: expected ErrRecordNotFound, got %v", err)
	}
}

func TestMemoryBackendContract(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestFileBackendContract(t *testing.T) {
	exerciseBackend(t, NewFileBackend(filepath.Join(t.TempDir(), "nested", "session.json")))
}

func TestRedisBackendContract(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	b := NewRedisBackend(rdb, "gs", "bar-dashboard-auth", 0)
	exerciseBackend(t, b)

	if err := b.Put(context.Background(), []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !mr.Exists("gs:bar-dashboard-auth") {
		t.Fatal("expected record under prefixed key")
	}
}

func TestRedisBackendUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	b := NewRedisBackend(rdb, "", "k", 0)
	if _, err := b.Get(context.Background()); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSQLBackendContract(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	b := NewSQLBackend(db, "bar-dashboard-auth")
	if err := b.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	exerciseBackend(t, b)
}

type fakePgRow struct {
	payload []byte
	err     error
}

func (r fakePgRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = append([]byte(nil), r.payload...)
	return nil
}

// fakePgPool understands the three statements PostgresBackend issues.
type fakePgPool struct {
	mu   sync.Mutex
	rows map[string][]byte
}

func (p *fakePgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case strings.Contains(sql, "INSERT"):
		p.rows[args[0].(string)] = append([]byte(nil), args[1].([]byte)...)
	case strings.Contains(sql, "DELETE"):
		delete(p.rows, args[0].(string))
	}
	return pgconn.CommandTag{}, nil
}

func (p *fakePgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload, ok := p.rows[args[0].(string)]
	if !ok {
		return fakePgRow{err: pgx.ErrNoRows}
	}
	return fakePgRow{payload: payload}
}

func TestPostgresBackendContract(t *testing.T) {
	pool := &fakePgPool{rows: map[string][]byte{}}
	b := NewPostgresBackend(pool, "bar-dashboard-auth")
	if err := b.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	exerciseBackend(t, b)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGate/jwt"
)

var (
	// ErrRecordNotFound is returned when no session has been persisted.
	ErrRecordNotFound = errors.New("session record not found")
	// ErrRecordCorrupt is returned when a persisted record cannot be trusted.
	ErrRecordCorrupt = errors.New("session record corrupt")
	// ErrRecordExpired is returned when the persisted token is a JWT past its exp.
	ErrRecordExpired = errors.New("session record expired")
	// ErrRecordInvalid is returned when asked to persist a malformed record.
	ErrRecordInvalid = errors.New("session record invalid")
	// ErrBackendUnavailable wraps I/O failures of a [Backend].
	ErrBackendUnavailable = errors.New("session backend unavailable")
)

// Backend is durable storage for a single encoded session blob.
//
// Get returns [ErrRecordNotFound] when nothing is stored. Delete is idempotent.
type Backend interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// StoreConfig controls how a [Store] reads and writes records.
type StoreConfig struct {
	// Sealer encrypts blobs at rest when set.
	Sealer *Sealer
	// DiscardExpired drops restored JWT sessions whose exp has passed.
	DiscardExpired bool
	ExpiryLeeway   time.Duration
	Now            func() time.Time
}

// Store is the persistence adapter between a session owner and a [Backend].
type Store struct {
	backend        Backend
	sealer         *Sealer
	discardExpired bool
	leeway         time.Duration
	now            func() time.Time
}

// NewStore returns a Store over backend.
func NewStore(backend Backend, cfg StoreConfig) *Store {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		backend:        backend,
		sealer:         cfg.Sealer,
		discardExpired: cfg.DiscardExpired,
		leeway:         cfg.ExpiryLeeway,
		now:            now,
	}
}

// Load restores the persisted record.
//
// Errors other than [ErrRecordNotFound] mean the caller must behave as if no
// session exists; the returned Record is always empty in that case.
func (s *Store) Load(ctx context.Context) (Record, error) {
	data, err := s.backend.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}

	if s.sealer != nil {
		data, err = s.sealer.Open(data)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
		}
	}

	rec, err := Decode(data)
	if err != nil {
		return Record{}, err
	}

	if s.discardExpired && jwt.Expired(rec.Token, s.now(), s.leeway) {
		return Record{}, ErrRecordExpired
	}

	return rec, nil
}

// Save persists rec, replacing any previous record. Saving an empty record clears.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.Empty() {
		return s.Clear(ctx)
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if s.sealer != nil {
		data, err = s.sealer.Seal(data)
		if err != nil {
			return err
		}
	}

	return s.backend.Put(ctx, data)
}

// Clear removes the persisted record.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx)
}

package goGate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goGate/internal/audit"
	"github.com/MrEthical07/goGate/internal/writeq"
	"github.com/MrEthical07/goGate/session"
	"github.com/google/uuid"
)

// StoreOptions configures a [Store]. The zero value is usable.
type StoreOptions struct {
	Logger      *slog.Logger
	Metrics     *Metrics
	Audit       AuditSink
	WriteBuffer int
	Now         func() time.Time
}

type subscriber struct {
	id uint64
	fn func(State)
}

type notification struct {
	state    State
	hydrated bool
}

// Store is the single source of truth for who is logged in.
//
// It is mutated only through [Store.Login] and [Store.Logout] (plus the one-time
// [Store.Hydrate]). Every mutation is written to [Persistence] through an ordered
// queue and delivered to subscribers in the order it was applied. When a
// subscriber mutates the store from inside its callback, the resulting
// notification is delivered after the current one completes.
type Store struct {
	persist Persistence
	writes  *writeq.Queue
	logger  *slog.Logger
	metrics *Metrics
	audit   AuditSink
	now     func() time.Time

	mu          sync.Mutex
	state       State
	mutated     bool
	hydrating   bool
	closed      bool
	ready       chan struct{}
	nextSubID   uint64
	subs        []subscriber
	onHydrated  []func(State)
	pending     []notification
	dispatching bool
}

// NewStore returns an empty, not-yet-hydrated store over p. A nil p keeps
// sessions in memory only.
func NewStore(p Persistence, opts StoreOptions) *Store {
	if p == nil {
		p = session.NewStore(session.NewMemoryBackend(), session.StoreConfig{})
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	sink := opts.Audit
	if sink == nil {
		sink = NoOpSink{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Store{
		persist: p,
		logger:  logger,
		metrics: opts.Metrics,
		audit:   sink,
		now:     now,
		ready:   make(chan struct{}),
	}
	s.writes = writeq.New(opts.WriteBuffer, s.onWriteError)
	return s
}

// State returns a copy of the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Hydrated reports whether persisted state has finished loading.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Hydrated
}

// Ready is closed once the store is hydrated.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Login replaces the session with token and user, persists it and notifies
// subscribers.
func (s *Store) Login(token string, user Identity) error {
	if token == "" {
		return ErrTokenRequired
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityRequired, err)
	}

	u := user.Clone()
	rec := session.Record{Token: token, User: &u}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.state.Token = token
	s.state.User = &u
	s.mutated = true
	s.enqueueLocked("save", func(ctx context.Context) error {
		return s.persist.Save(ctx, rec.Clone())
	})
	s.pending = append(s.pending, notification{state: s.state.clone()})
	s.dispatchLocked()

	s.metrics.Inc(MetricLoginSuccess)
	s.emit(audit.EventLogin, u.ID, true, "")
	return nil
}

// Logout clears the session. It is idempotent: the cleared record is persisted
// only when a session was present, but subscribers are always notified.
func (s *Store) Logout() {
	s.mu.Lock()
	s.logoutLocked()
}

// Invalidate logs out only if token is still the current session token and
// reports whether it did. Concurrent rejections of one token log out once.
// See [Store.Subscribe] for when subscribers observe the logout.
func (s *Store) Invalidate(token string) bool {
	s.mu.Lock()
	if token == "" || s.state.Token != token {
		s.mu.Unlock()
		return false
	}
	s.logoutLocked()
	return true
}

// logoutLocked is entered with s.mu held and returns with it released.
func (s *Store) logoutLocked() {
	userID := ""
	had := s.state.Token != ""
	if had {
		userID = s.state.User.ID
	}
	s.state.Token = ""
	s.state.User = nil
	s.mutated = true
	if had && !s.closed {
		s.enqueueLocked("clear", s.persist.Clear)
	}
	s.pending = append(s.pending, notification{state: s.state.clone()})
	s.dispatchLocked()

	if had {
		s.metrics.Inc(MetricLogout)
		s.emit(audit.EventLogout, userID, true, "")
	}
}

// Hydrate restores the persisted session once per store lifetime. Later calls
// return immediately.
//
// Failures never block hydration: a missing, corrupt, expired or unreadable
// record leaves the store logged out and hydrated. Corrupt and expired records
// are purged, as are records that fail validation. A Login or Logout applied
// while loading wins over the restored record; after a Logout the record is
// also removed from persistence.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hydrating {
		s.mu.Unlock()
		return nil
	}
	s.hydrating = true
	s.mu.Unlock()

	rec, err := s.persist.Load(ctx)
	if err == nil {
		if verr := rec.Validate(); verr != nil {
			err = fmt.Errorf("%w: %v", session.ErrRecordCorrupt, verr)
		} else if rec.Empty() {
			err = session.ErrRecordNotFound
		}
	}
	// stale means persistence holds something that must not survive unless
	// it ends up as the current session.
	stale := err == nil
	purge := false
	outcome := "restored"
	switch {
	case err == nil:
		s.metrics.Inc(MetricHydrationRestored)
	case errors.Is(err, session.ErrRecordNotFound):
		outcome = "empty"
		s.metrics.Inc(MetricHydrationEmpty)
	case errors.Is(err, session.ErrRecordExpired):
		outcome = "expired"
		purge = true
		s.metrics.Inc(MetricHydrationExpired)
	case errors.Is(err, session.ErrRecordCorrupt):
		outcome = "corrupt"
		purge = true
		s.metrics.Inc(MetricHydrationCorrupt)
	default:
		outcome = "unavailable"
		s.metrics.Inc(MetricHydrationUnavailable)
	}
	if err != nil {
		rec = session.Record{}
	} else {
		rec = rec.Clone()
	}
	stale = stale || purge

	s.mu.Lock()
	superseded := s.mutated
	if !superseded && !rec.Empty() {
		s.state.Token = rec.Token
		s.state.User = rec.User
	}
	// A Logout during loading saw an empty state and queued nothing, so the
	// loaded record is purged here. A Login during loading already queued its
	// Save, which must not be undone.
	if stale && !s.state.Authenticated() && !s.closed {
		s.enqueueLocked("purge", s.persist.Clear)
	}
	s.state.Hydrated = true
	close(s.ready)
	s.pending = append(s.pending, notification{state: s.state.clone(), hydrated: true})
	authenticated := s.state.Authenticated()
	s.dispatchLocked()

	attrs := []any{"outcome", outcome, "authenticated", authenticated, "superseded", superseded}
	switch outcome {
	case "corrupt", "expired":
		s.logger.Warn("persisted session discarded", append(attrs, "error", err)...)
		s.emit(audit.EventRecordDiscarded, "", false, outcome)
	case "unavailable":
		s.logger.Error("session persistence unavailable during hydration", append(attrs, "error", err)...)
	default:
		s.logger.Info("session hydrated", attrs...)
	}
	s.emit(audit.EventHydrated, "", true, "")
	return nil
}

// HydrateAsync runs [Store.Hydrate] on its own goroutine.
func (s *Store) HydrateAsync(ctx context.Context) {
	go func() {
		_ = s.Hydrate(ctx)
	}()
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
//
// fn runs synchronously on the mutating goroutine. When another goroutine is
// already delivering notifications, a mutation is queued behind them and
// delivered by that goroutine instead, so [Store.Logout] or
// [Store.Invalidate] can return before fn has seen the change. Delivery order
// always matches mutation order.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// OnHydrated calls fn exactly once when hydration completes. If the store is
// already hydrated fn is called immediately with the current state.
func (s *Store) OnHydrated(fn func(State)) {
	s.mu.Lock()
	if s.state.Hydrated {
		st := s.state.clone()
		s.mu.Unlock()
		fn(st)
		return
	}
	s.onHydrated = append(s.onHydrated, fn)
	s.mu.Unlock()
}

// Flush waits for queued persistence writes to complete.
func (s *Store) Flush(ctx context.Context) error {
	return s.writes.Flush(ctx)
}

// PersistFailures returns how many persistence writes have failed.
func (s *Store) PersistFailures() uint64 {
	return s.writes.Failed()
}

// Close drains pending writes. Login fails afterwards; Logout still clears
// memory and notifies but no longer persists.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.writes.Close()
}

// enqueueLocked must be called with s.mu held so write order matches state order.
func (s *Store) enqueueLocked(op string, fn func(context.Context) error) {
	if err := s.writes.Enqueue(writeq.Write{Op: op, Func: fn}); err != nil {
		s.onWriteError(op, err)
	}
}

// dispatchLocked delivers pending notifications in order. It is entered with
// s.mu held and returns with s.mu released. Only one goroutine dispatches at a
// time; others leave their notification for it.
func (s *Store) dispatchLocked() {
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true

	for len(s.pending) > 0 {
		n := s.pending[0]
		s.pending = s.pending[1:]
		subs := make([]subscriber, len(s.subs))
		copy(subs, s.subs)
		var hydratedFns []func(State)
		if n.hydrated {
			hydratedFns = s.onHydrated
			s.onHydrated = nil
		}
		s.mu.Unlock()

		for _, sub := range subs {
			sub.fn(n.state.clone())
		}
		for _, fn := range hydratedFns {
			fn(n.state.clone())
		}

		s.mu.Lock()
	}

	s.dispatching = false
	s.mu.Unlock()
}

func (s *Store) onWriteError(op string, err error) {
	s.metrics.Inc(MetricPersistFailure)
	s.logger.Error("session persistence write failed", "op", op, "error", err)
}

func (s *Store) emit(eventType, userID string, success bool, reason string) {
	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Success:   success,
	}
	if reason != "" {
		event.Error = reason
	}
	s.audit.Emit(context.Background(), event)
}

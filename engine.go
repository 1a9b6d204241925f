package goGate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/goGate/api"
	"github.com/MrEthical07/goGate/internal/audit"
	"github.com/google/uuid"
)

// RegisterRequest accepts an invitation. See [Engine.AcceptInvitation].
type RegisterRequest = api.RegisterRequest

// Engine ties a [Store], [Gate], [Transport] and backend client together.
// Build one with [New]. Engine methods are safe for concurrent use.
type Engine struct {
	config     Config
	store      *Store
	gate       *Gate
	transport  *Transport
	httpClient *http.Client
	api        *api.Client
	metrics    *Metrics
	audit      *audit.Dispatcher
	sink       AuditSink
	logger     *slog.Logger
}

// Start begins hydration in the background. The gate suspends until it
// completes; wait on Store().Ready() to block instead.
func (e *Engine) Start(ctx context.Context) {
	if e == nil {
		return
	}
	e.store.HydrateAsync(ctx)
}

// SignIn submits credentials and, on success, stores the returned session.
// On failure the store is left untouched and the error matches
// [ErrInvalidCredentials] or [ErrLoginUnavailable].
func (e *Engine) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	res, err := e.api.Login(ctx, email, password)
	if err != nil {
		reason := "unavailable"
		if errors.Is(err, ErrInvalidCredentials) {
			reason = "invalid_credentials"
			e.metrics.Inc(MetricLoginRejected)
		} else {
			e.metrics.Inc(MetricLoginUnavailable)
			e.logger.Warn("login failed", "reason", reason, "error", err)
		}
		e.sink.Emit(ctx, AuditEvent{
			ID:        uuid.NewString(),
			Timestamp: time.Now().UTC(),
			EventType: audit.EventLoginRejected,
			Success:   false,
			Error:     reason,
		})
		return nil, err
	}

	if err := e.store.Login(res.Token, res.User); err != nil {
		return nil, err
	}
	user := res.User.Clone()
	return &user, nil
}

// AcceptInvitation registers the invited account and signs it in, replacing
// any current session.
func (e *Engine) AcceptInvitation(ctx context.Context, req RegisterRequest) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	res, err := e.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := e.store.Login(res.Token, res.User); err != nil {
		return nil, err
	}
	user := res.User.Clone()
	return &user, nil
}

// SignOut clears the session locally. The backend has no logout endpoint;
// the token simply stops being sent.
func (e *Engine) SignOut() {
	if e == nil {
		return
	}
	e.store.Logout()
}

func (e *Engine) Store() *Store { return e.store }

func (e *Engine) Gate() *Gate { return e.gate }

// API returns the backend client. Its requests are authenticated with the
// current session.
func (e *Engine) API() *api.Client { return e.api }

// HTTPClient returns the authenticated client for endpoints [api.Client]
// does not cover.
func (e *Engine) HTTPClient() *http.Client { return e.httpClient }

func (e *Engine) Config() Config { return cloneConfig(e.config) }

// Close detaches the gate, drains pending persistence writes and flushes
// audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.gate.Close()
	e.store.Close()
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

package goGate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/goGate/internal/audit"
	"github.com/MrEthical07/goGate/internal/credctx"
	"github.com/google/uuid"
)

// SessionSource is the part of [Store] the transport depends on.
// Invalidate must log out only while token is still current.
type SessionSource interface {
	State() State
	Invalidate(token string) bool
}

// TransportOptions configures a [Transport].
type TransportOptions struct {
	// RequestIDHeader is set to a fresh UUID when the request lacks it.
	// Empty disables request IDs.
	RequestIDHeader string
	Logger          *slog.Logger
	Metrics         *Metrics
	Audit           AuditSink
	Now             func() time.Time
}

// Transport is an [http.RoundTripper] that authenticates requests with the
// session token and clears the session when the server answers 401.
//
// The token is read from the session on every request. Transport never
// navigates; redirecting after an invalidation is the [Gate]'s job.
type Transport struct {
	base     http.RoundTripper
	session  SessionSource
	idHeader string
	logger   *slog.Logger
	metrics  *Metrics
	audit    AuditSink
	now      func() time.Time
}

// NewTransport wraps base. A nil base uses [http.DefaultTransport].
func NewTransport(base http.RoundTripper, session SessionSource, opts TransportOptions) *Transport {
	if base == nil {
		base = http.DefaultTransport
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
	return &Transport{
		base:     base,
		session:  session,
		idHeader: opts.RequestIDHeader,
		logger:   logger,
		metrics:  opts.Metrics,
		audit:    sink,
		now:      now,
	}
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	anonymous := credctx.IsAnonymous(ctx)

	out := req.Clone(ctx)
	out.Header.Del("Authorization")

	sent := ""
	if !anonymous {
		st := t.session.State()
		if st.Authenticated() {
			sent = st.Token
			out.Header.Set("Authorization", "Bearer "+sent)
		}
	}

	requestID := ""
	if t.idHeader != "" {
		requestID = out.Header.Get(t.idHeader)
		if requestID == "" {
			requestID = requestIDFromContext(ctx)
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		out.Header.Set(t.idHeader, requestID)
	}

	start := t.now()
	resp, err := t.base.RoundTrip(out)
	t.metrics.Observe(MetricRequestLatency, t.now().Sub(start))
	if err != nil {
		return resp, err
	}

	if resp.StatusCode == http.StatusUnauthorized && sent != "" {
		t.invalidate(ctx, sent, requestID, req)
	}
	return resp, nil
}

// invalidate logs out when the rejected token is still the current one. A 401
// for a token that has since been replaced must not end the newer session.
func (t *Transport) invalidate(ctx context.Context, sent, requestID string, req *http.Request) {
	if ctx.Err() != nil {
		return
	}
	userID := ""
	if st := t.session.State(); st.User != nil && st.Token == sent {
		userID = st.User.ID
	}
	if !t.session.Invalidate(sent) {
		t.logger.Debug("ignoring 401 for superseded token", "request_id", requestID, "path", req.URL.Path)
		return
	}

	t.metrics.Inc(MetricAuthorizationExpired)
	t.logger.Warn("session invalidated by server",
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.Path,
	)
	t.audit.Emit(context.Background(), AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: t.now().UTC(),
		EventType: audit.EventSessionInvalidated,
		UserID:    userID,
		RequestID: requestID,
		Location:  req.URL.Path,
		Success:   true,
	})
}

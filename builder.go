package goGate

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goGate/api"
	"github.com/MrEthical07/goGate/internal/audit"
	"github.com/MrEthical07/goGate/session"
)

// Builder assembles an [Engine]. A Builder can be used once.
type Builder struct {
	config Config

	persistence   Persistence
	backend       session.Backend
	navigator     Navigator
	classifier    Classifier
	logger        *slog.Logger
	auditSink     AuditSink
	baseTransport http.RoundTripper

	built bool
}

// New returns a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithPersistence sets the persistence adapter directly. It takes precedence
// over [Builder.WithBackend].
func (b *Builder) WithPersistence(p Persistence) *Builder {
	b.persistence = p
	return b
}

// WithBackend stores sessions in backend through a [session.Store] configured
// from Config.Persistence. Without a backend or persistence, sessions live in
// memory only.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithClassifier replaces the route table built from Config.Routes.
func (b *Builder) WithClassifier(c Classifier) *Builder {
	b.classifier = c
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithBaseTransport sets the RoundTripper requests are sent through after
// authentication is applied.
func (b *Builder) WithBaseTransport(rt http.RoundTripper) *Builder {
	b.baseTransport = rt
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires store, gate, transport and API
// client. Hydration does not start until [Engine.Start].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.navigator == nil {
		return nil, ErrNavigatorRequired
	}

	logger := b.logger
	if logger == nil {
		logger = discardLogger()
	}
	metrics := NewMetrics(cfg.Metrics)

	// -------- AUDIT --------
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	var sink AuditSink = NoOpSink{}
	if dispatcher != nil {
		sink = dispatcher
	}
	closeAudit := func() {
		if dispatcher != nil {
			dispatcher.Close()
		}
	}

	// -------- PERSISTENCE --------
	persistence := b.persistence
	if persistence == nil {
		backend := b.backend
		if backend == nil {
			backend = session.NewMemoryBackend()
		}
		storeCfg := session.StoreConfig{
			DiscardExpired: cfg.Persistence.DiscardExpired,
			ExpiryLeeway:   cfg.Persistence.ExpiryLeeway,
		}
		if len(cfg.Persistence.SealKey) > 0 {
			sealer, err := session.NewSealer(cfg.Persistence.SealKey)
			if err != nil {
				closeAudit()
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			storeCfg.Sealer = sealer
		}
		persistence = session.NewStore(backend, storeCfg)
	}

	// -------- SESSION STORE --------
	store := NewStore(persistence, StoreOptions{
		Logger:      logger.With("component", "store"),
		Metrics:     metrics,
		Audit:       sink,
		WriteBuffer: cfg.Persistence.WriteBuffer,
	})

	// -------- GATE --------
	classifier := b.classifier
	if classifier == nil {
		table, err := NewRouteTable(cfg.Routes.Classes)
		if err != nil {
			store.Close()
			closeAudit()
			return nil, err
		}
		classifier = table
	}
	gate, err := NewGate(store, b.navigator, classifier, GateOptions{
		LoginLocation: cfg.Routes.Login,
		HomeLocation:  cfg.Routes.Home,
		Logger:        logger.With("component", "gate"),
		Metrics:       metrics,
	})
	if err != nil {
		store.Close()
		closeAudit()
		return nil, err
	}

	// -------- HTTP --------
	transport := NewTransport(b.baseTransport, store, TransportOptions{
		RequestIDHeader: cfg.HTTP.RequestIDHeader,
		Logger:          logger.With("component", "transport"),
		Metrics:         metrics,
		Audit:           sink,
	})
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.HTTP.Timeout,
	}
	client, err := api.New(cfg.HTTP.BaseURL, httpClient)
	if err != nil {
		gate.Close()
		store.Close()
		closeAudit()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	b.built = true

	return &Engine{
		config:     cfg,
		store:      store,
		gate:       gate,
		transport:  transport,
		httpClient: httpClient,
		api:        client,
		metrics:    metrics,
		audit:      dispatcher,
		sink:       sink,
		logger:     logger,
	}, nil
}

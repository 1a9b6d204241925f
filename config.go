package goGate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the full engine configuration. Start from [DefaultConfig].
type Config struct {
	Routes      RoutesConfig
	Persistence PersistenceConfig
	HTTP        HTTPConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig classifies locations for the [Gate].
type RoutesConfig struct {
	Login string
	Home  string
	// Classes maps a pattern ("/login", "/bars/*") to its class. Locations
	// matching no pattern are protected.
	Classes map[string]LocationClass
}

/*
====================================
PERSISTENCE CONFIG
====================================
*/

// PersistenceConfig controls how the session record is stored.
type PersistenceConfig struct {
	// Key names the stored record (file name, Redis key suffix, SQL row key).
	Key string
	// DiscardExpired drops a restored JWT whose exp has passed.
	DiscardExpired bool
	ExpiryLeeway   time.Duration
	// SealKey, when set, encrypts the record at rest. Must be 32 bytes.
	SealKey     []byte
	WriteBuffer int
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig configures the backend client.
type HTTPConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RequestIDHeader string
}

// AuditConfig controls async audit delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the dashboard defaults.
func DefaultConfig() Config {
	return Config{
		Routes: RoutesConfig{
			Login: "/login",
			Home:  "/",
			Classes: map[string]LocationClass{
				"/login":          ClassPublic,
				"/register":       ClassPublic,
				"/reset-password": ClassPublic,
				"/":               ClassProtected,
				"/catalog":        ClassProtected,
				"/admin":          ClassProtected,
				"/bars/*":         ClassProtected,
			},
		},
		Persistence: PersistenceConfig{
			Key:            "bar-dashboard-auth",
			DiscardExpired: true,
			ExpiryLeeway:   30 * time.Second,
			WriteBuffer:    16,
		},
		HTTP: HTTPConfig{
			BaseURL:         "http://localhost:3026/api/v1",
			Timeout:         15 * time.Second,
			RequestIDHeader: "X-Request-Id",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Persistence.SealKey = cloneBytes(cfg.Persistence.SealKey)
	if cfg.Routes.Classes != nil {
		out.Routes.Classes = make(map[string]LocationClass, len(cfg.Routes.Classes))
		for k, v := range cfg.Routes.Classes {
			out.Routes.Classes[k] = v
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cfg for values the engine cannot run with. Every error
// wraps [ErrInvalidConfig].
func (c *Config) Validate() error {
	var errs []error

	// Routes
	if !strings.HasPrefix(c.Routes.Login, "/") {
		errs = append(errs, errors.New("Routes.Login must be an absolute path"))
	}
	if !strings.HasPrefix(c.Routes.Home, "/") {
		errs = append(errs, errors.New("Routes.Home must be an absolute path"))
	}
	if NormalizeLocation(c.Routes.Login) == NormalizeLocation(c.Routes.Home) {
		errs = append(errs, errors.New("Routes.Login and Routes.Home must differ"))
	}
	if table, err := NewRouteTable(c.Routes.Classes); err != nil {
		errs = append(errs, err)
	} else {
		if table.Classify(c.Routes.Login) == ClassProtected {
			errs = append(errs, errors.New("Routes.Login must be classified public or open"))
		}
		if table.Classify(c.Routes.Home) == ClassPublic {
			errs = append(errs, errors.New("Routes.Home must not be public"))
		}
	}

	// Persistence
	if strings.TrimSpace(c.Persistence.Key) == "" {
		errs = append(errs, errors.New("Persistence.Key must be set"))
	}
	if c.Persistence.ExpiryLeeway < 0 || c.Persistence.ExpiryLeeway > 10*time.Minute {
		errs = append(errs, errors.New("Persistence.ExpiryLeeway must be within [0, 10m]"))
	}
	if len(c.Persistence.SealKey) != 0 && len(c.Persistence.SealKey) != 32 {
		errs = append(errs, errors.New("Persistence.SealKey must be 32 bytes"))
	}
	if c.Persistence.WriteBuffer <= 0 {
		errs = append(errs, errors.New("Persistence.WriteBuffer must be > 0"))
	}

	// HTTP
	if u, err := url.Parse(c.HTTP.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, errors.New("HTTP.BaseURL must be an absolute http(s) URL"))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP.Timeout must be > 0"))
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		errs = append(errs, errors.New("Audit.BufferSize must be > 0 when audit is enabled"))
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		errs = append(errs, errors.New("Metrics.EnableLatencyHistograms requires Metrics.Enabled"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

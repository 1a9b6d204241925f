package goGate

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"relative login": func(c *Config) { c.Routes.Login = "login" },
		"login is home":  func(c *Config) { c.Routes.Home = "/login/" },
		"protected login": func(c *Config) {
			c.Routes.Classes["/login"] = ClassProtected
		},
		"public home": func(c *Config) {
			c.Routes.Classes["/"] = ClassPublic
		},
		"bad pattern":     func(c *Config) { c.Routes.Classes["/a*b"] = ClassOpen },
		"empty key":       func(c *Config) { c.Persistence.Key = " " },
		"huge leeway":     func(c *Config) { c.Persistence.ExpiryLeeway = time.Hour },
		"short seal key":  func(c *Config) { c.Persistence.SealKey = []byte("short") },
		"zero buffer":     func(c *Config) { c.Persistence.WriteBuffer = 0 },
		"relative url":    func(c *Config) { c.HTTP.BaseURL = "/api/v1" },
		"ftp url":         func(c *Config) { c.HTTP.BaseURL = "ftp://host/api" },
		"zero timeout":    func(c *Config) { c.HTTP.Timeout = 0 },
		"audit no buffer": func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
		"histograms only": func(c *Config) { c.Metrics.EnableLatencyHistograms = true },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestConfigValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Persistence.Key = ""
	cfg.HTTP.Timeout = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Persistence.Key") || !strings.Contains(msg, "HTTP.Timeout") {
		t.Fatalf("expected both problems reported, got %q", msg)
	}
}

func TestCloneConfigIsDeep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Persistence.SealKey = []byte("0123456789abcdef0123456789abcdef")
	out := cloneConfig(cfg)
	out.Routes.Classes["/new"] = ClassOpen
	out.Persistence.SealKey[0] = 'x'
	if _, ok := cfg.Routes.Classes["/new"]; ok {
		t.Fatalf("route classes aliased")
	}
	if cfg.Persistence.SealKey[0] != '0' {
		t.Fatalf("seal key aliased")
	}
}

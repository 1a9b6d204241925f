package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in persistence.backend.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// FileConfig is the on-disk gatectl configuration. Zero fields keep the
// library defaults.
type FileConfig struct {
	BaseURL     string          `yaml:"base_url"`
	Timeout     time.Duration   `yaml:"timeout"`
	LogLevel    string          `yaml:"log_level"`
	Persistence PersistenceFile `yaml:"persistence"`
	Routes      RoutesFile      `yaml:"routes"`
	Audit       AuditFile       `yaml:"audit"`
}

type PersistenceFile struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Key         string `yaml:"key"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
	PostgresDSN string `yaml:"postgres_dsn"`
	// SealKey is 64 hex characters. Empty stores the record unencrypted.
	SealKey        string `yaml:"seal_key"`
	DiscardExpired *bool  `yaml:"discard_expired"`
}

// RoutesFile lists patterns per class. When any list is set the lists
// replace the default route table entirely.
type RoutesFile struct {
	Login     string   `yaml:"login"`
	Home      string   `yaml:"home"`
	Public    []string `yaml:"public"`
	Open      []string `yaml:"open"`
	Protected []string `yaml:"protected"`
}

type AuditFile struct {
	// File receives one JSON object per audit event. Empty disables audit.
	File string `yaml:"file"`
}

// LoadConfig reads path and applies GATECTL_* environment overrides. A
// missing file is not an error when path is the default location.
func LoadConfig(path string, required bool) (FileConfig, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return FileConfig{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return FileConfig{}, fmt.Errorf("read config: %w", err)
		}
	}
	applyEnv(&cfg)
	if cfg.Persistence.Backend == "" {
		cfg.Persistence.Backend = BackendFile
	}
	if cfg.Persistence.Backend == BackendFile && cfg.Persistence.Path == "" {
		cfg.Persistence.Path = defaultSessionPath()
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	cfg.BaseURL = envString("GATECTL_BASE_URL", cfg.BaseURL)
	cfg.Timeout = envDuration("GATECTL_TIMEOUT", cfg.Timeout)
	cfg.LogLevel = envString("GATECTL_LOG_LEVEL", cfg.LogLevel)
	cfg.Persistence.Backend = envString("GATECTL_BACKEND", cfg.Persistence.Backend)
	cfg.Persistence.Path = envString("GATECTL_SESSION_PATH", cfg.Persistence.Path)
	cfg.Persistence.RedisURL = envString("GATECTL_REDIS_URL", cfg.Persistence.RedisURL)
	cfg.Persistence.PostgresDSN = envString("GATECTL_POSTGRES_DSN", cfg.Persistence.PostgresDSN)
	cfg.Persistence.SealKey = envString("GATECTL_SEAL_KEY", cfg.Persistence.SealKey)
	cfg.Audit.File = envString("GATECTL_AUDIT_FILE", cfg.Audit.File)
	if v, ok := os.LookupEnv("GATECTL_DISCARD_EXPIRED"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Persistence.DiscardExpired = &b
		}
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// DefaultConfigPath is $XDG_CONFIG_HOME/gatectl/config.yaml or its platform
// equivalent.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gatectl.yaml"
	}
	return filepath.Join(dir, "gatectl", "config.yaml")
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".gatectl-session.json"
	}
	return filepath.Join(dir, "gatectl", "session.json")
}

// EngineConfig converts the file configuration into a validated library
// configuration.
func (c FileConfig) EngineConfig() (goGate.Config, error) {
	cfg := goGate.DefaultConfig()
	if c.BaseURL != "" {
		cfg.HTTP.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	if c.Timeout > 0 {
		cfg.HTTP.Timeout = c.Timeout
	}
	if c.Persistence.Key != "" {
		cfg.Persistence.Key = c.Persistence.Key
	}
	if c.Persistence.DiscardExpired != nil {
		cfg.Persistence.DiscardExpired = *c.Persistence.DiscardExpired
	}
	if c.Persistence.SealKey != "" {
		key, err := hex.DecodeString(strings.TrimSpace(c.Persistence.SealKey))
		if err != nil {
			return goGate.Config{}, fmt.Errorf("%w: persistence.seal_key must be hex: %v", goGate.ErrInvalidConfig, err)
		}
		cfg.Persistence.SealKey = key
	}

	if c.Routes.Login != "" {
		cfg.Routes.Login = c.Routes.Login
	}
	if c.Routes.Home != "" {
		cfg.Routes.Home = c.Routes.Home
	}
	if len(c.Routes.Public)+len(c.Routes.Open)+len(c.Routes.Protected) > 0 {
		classes := make(map[string]goGate.LocationClass)
		add := func(patterns []string, class goGate.LocationClass) error {
			for _, p := range patterns {
				if prev, ok := classes[p]; ok && prev != class {
					return fmt.Errorf("%w: route %q listed as %s and %s", goGate.ErrInvalidConfig, p, prev, class)
				}
				classes[p] = class
			}
			return nil
		}
		if err := add(c.Routes.Public, goGate.ClassPublic); err != nil {
			return goGate.Config{}, err
		}
		if err := add(c.Routes.Open, goGate.ClassOpen); err != nil {
			return goGate.Config{}, err
		}
		if err := add(c.Routes.Protected, goGate.ClassProtected); err != nil {
			return goGate.Config{}, err
		}
		cfg.Routes.Classes = classes
	}

	cfg.Audit.Enabled = c.Audit.File != ""

	if err := cfg.Validate(); err != nil {
		return goGate.Config{}, err
	}
	return cfg, nil
}

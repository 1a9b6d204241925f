package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
base_url: http://api.test/api/v1/
timeout: 3s
persistence:
  backend: sqlite
  path: /tmp/sessions.db
  key: ops-dashboard
  discard_expired: false
routes:
  login: /signin
  home: /overview
  public: [/signin]
  open: [/status/*]
  protected: [/overview, /bars/*]
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Persistence.Backend)
	assert.Equal(t, 3*time.Second, cfg.Timeout)

	engineCfg, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/api/v1", engineCfg.HTTP.BaseURL)
	assert.Equal(t, "ops-dashboard", engineCfg.Persistence.Key)
	assert.False(t, engineCfg.Persistence.DiscardExpired)
	assert.Equal(t, "/signin", engineCfg.Routes.Login)
	assert.Equal(t, map[string]goGate.LocationClass{
		"/signin":   goGate.ClassPublic,
		"/status/*": goGate.ClassOpen,
		"/overview": goGate.ClassProtected,
		"/bars/*":   goGate.ClassProtected,
	}, engineCfg.Routes.Classes)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "base_url: http://file.test/api/v1\n")
	t.Setenv("GATECTL_BASE_URL", "http://env.test/api/v1")
	t.Setenv("GATECTL_SESSION_PATH", filepath.Join(dir, "s.json"))
	t.Setenv("GATECTL_TIMEOUT", "7s")
	t.Setenv("GATECTL_DISCARD_EXPIRED", "false")

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "http://env.test/api/v1", cfg.BaseURL)
	assert.Equal(t, BackendFile, cfg.Persistence.Backend)
	assert.Equal(t, filepath.Join(dir, "s.json"), cfg.Persistence.Path)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.Persistence.DiscardExpired)
	assert.False(t, *cfg.Persistence.DiscardExpired)
}

func TestLoadConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := LoadConfig(missing, true)
	assert.Error(t, err)

	cfg, err := LoadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Persistence.Backend)
	assert.NotEmpty(t, cfg.Persistence.Path)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "base_url: [unterminated\n")
	_, err := LoadConfig(path, true)
	assert.Error(t, err)
}

func TestEngineConfigRejects(t *testing.T) {
	cases := map[string]FileConfig{
		"seal key not hex":   {Persistence: PersistenceFile{SealKey: "zz"}},
		"seal key too short": {Persistence: PersistenceFile{SealKey: "abcd"}},
		"conflicting route": {Routes: RoutesFile{
			Public:    []string{"/login"},
			Protected: []string{"/login"},
		}},
		"login protected": {Routes: RoutesFile{Protected: []string{"/login", "/"}}},
		"bad base url":    {BaseURL: "ftp://x"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := cfg.EngineConfig()
			assert.ErrorIs(t, err, goGate.ErrInvalidConfig)
		})
	}
}

func TestEngineConfigSealKeyAndAudit(t *testing.T) {
	cfg := FileConfig{
		Persistence: PersistenceFile{SealKey: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"},
		Audit:       AuditFile{File: "/tmp/audit.jsonl"},
	}
	engineCfg, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Len(t, engineCfg.Persistence.SealKey, 32)
	assert.True(t, engineCfg.Audit.Enabled)
}

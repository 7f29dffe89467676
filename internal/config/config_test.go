package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  listen_addr: ":8443"
  metrics_addr: ""
database:
  path: /tmp/certs.db
issuance:
  id_prefix: ACM
  organizer_name: ACM Student Chapter
admin:
  token: s3cret
retention:
  verification_log_max_age: 30d
logging:
  level: debug
  format: text
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MergesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8443", cfg.Server.ListenAddr)
	assert.Empty(t, cfg.Server.MetricsAddr)
	assert.Equal(t, "ACM", cfg.Issuance.IDPrefix)
	assert.Equal(t, 2048, cfg.Issuance.KeyBits)
	assert.Equal(t, 200, cfg.QR.Size)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.GetCacheLifeWindow())
	assert.Equal(t, 30*24*time.Hour, cfg.GetVerificationLogMaxAge())
	assert.Equal(t, time.Hour, cfg.GetPruneInterval())
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "database:\n  path: x.db\n"))
	require.ErrorContains(t, err, "admin.token is required")
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	t.Setenv("CERTSRV_DB_PATH", "/data/override.db")
	t.Setenv("CERTSRV_ADMIN_TOKEN", "from-env")
	t.Setenv("CERTSRV_KEY_BITS", "3072")
	t.Setenv("CERTSRV_METRICS_ADDR", ":9999")

	cfg, err := LoadWithEnv(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/data/override.db", cfg.Database.Path)
	assert.Equal(t, "from-env", cfg.Admin.Token)
	assert.Equal(t, 3072, cfg.Issuance.KeyBits)
	assert.Equal(t, ":9999", cfg.Server.MetricsAddr)
}

func TestLoadWithEnv_InvalidOverride(t *testing.T) {
	t.Setenv("CERTSRV_KEY_BITS", "1024")

	_, err := LoadWithEnv(writeConfig(t, sampleConfig))
	require.ErrorContains(t, err, "key_bits")

	t.Setenv("CERTSRV_KEY_BITS", "lots")
	_, err = LoadWithEnv(writeConfig(t, sampleConfig))
	require.ErrorContains(t, err, "CERTSRV_KEY_BITS")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Admin.Token = "token"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"listen addr":    func(c *Config) { c.Server.ListenAddr = "" },
		"trusted proxy":  func(c *Config) { c.Server.TrustedProxies = []string{"proxy.local"} },
		"db path":        func(c *Config) { c.Database.Path = "" },
		"lower prefix":   func(c *Config) { c.Issuance.IDPrefix = "ieee" },
		"dash prefix":    func(c *Config) { c.Issuance.IDPrefix = "IE-EE" },
		"key bits":       func(c *Config) { c.Issuance.KeyBits = 1024 },
		"field length":   func(c *Config) { c.Issuance.MaxFieldLength = 4 },
		"qr size":        func(c *Config) { c.QR.Size = 10 },
		"qr margin":      func(c *Config) { c.QR.Margin = -1 },
		"cache window":   func(c *Config) { c.Cache.LifeWindow = "soon" },
		"retention":      func(c *Config) { c.Retention.VerificationLogMaxAge = "0d" },
		"prune interval": func(c *Config) { c.Retention.PruneInterval = "" },
		"log level":      func(c *Config) { c.Logging.Level = "trace" },
		"log format":     func(c *Config) { c.Logging.Format = "xml" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	disabled := valid()
	disabled.Cache.Enabled = false
	disabled.Cache.LifeWindow = ""
	require.NoError(t, disabled.Validate())

	proxied := valid()
	proxied.Server.TrustedProxies = []string{"10.0.0.1", "192.168.0.0/16", "::1"}
	require.NoError(t, proxied.Validate())
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("90d")
	require.NoError(t, err)
	assert.Equal(t, 90*24*time.Hour, d)

	d, err = parseDuration("15m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	_, err = parseDuration("xd")
	require.Error(t, err)
}

package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Issuance  IssuanceConfig  `yaml:"issuance"`
	QR        QRConfig        `yaml:"qr"`
	Verify    VerifyConfig    `yaml:"verify"`
	Admin     AdminConfig     `yaml:"admin"`
	Cache     CacheConfig     `yaml:"cache"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the metrics listener
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For / X-Real-IP
	// headers are honoured. Empty means client addresses come from the socket.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// IssuanceConfig contains certificate issuance settings
type IssuanceConfig struct {
	IDPrefix      string `yaml:"id_prefix"`
	KeyBits       int    `yaml:"key_bits"`
	OrganizerName string `yaml:"organizer_name"`

	MaxFieldLength  int    `yaml:"max_field_length"`  // runes per field
	EventDateLayout string `yaml:"event_date_layout"` // Go time layout; empty accepts any text
}

// QRConfig contains QR rendering settings
type QRConfig struct {
	Size   int `yaml:"size"`   // pixels
	Margin int `yaml:"margin"` // modules
}

// VerifyConfig contains verification settings
type VerifyConfig struct {
	LogAttempts bool `yaml:"log_attempts"`
}

// AdminConfig contains admin configuration
type AdminConfig struct {
	Token      string `yaml:"token"`
	TOTPSecret string `yaml:"totp_secret"`
}

// CacheConfig contains record cache configuration
type CacheConfig struct {
	Enabled      bool   `yaml:"enabled"`
	LifeWindow   string `yaml:"life_window"`
	MaxEntrySize int    `yaml:"max_entry_size_bytes"`
}

// RetentionConfig contains verification log retention settings
type RetentionConfig struct {
	VerificationLogMaxAge string `yaml:"verification_log_max_age"`
	PruneInterval         string `yaml:"prune_interval"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

var idPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)

// Default returns a configuration with every optional value filled in
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:  ":8080",
			MetricsAddr: ":9090",
		},
		Database: DatabaseConfig{
			Path: "/var/lib/eventcert/certs.db",
		},
		Issuance: IssuanceConfig{
			IDPrefix:       "IEEE",
			KeyBits:        2048,
			MaxFieldLength: 256,
		},
		QR: QRConfig{
			Size:   200,
			Margin: 2,
		},
		Verify: VerifyConfig{
			LogAttempts: true,
		},
		Cache: CacheConfig{
			Enabled:      true,
			LifeWindow:   "10m",
			MaxEntrySize: 4096,
		},
		Retention: RetentionConfig{
			VerificationLogMaxAge: "90d",
			PruneInterval:         "1h",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("server.trusted_proxies: %q is not an IP or CIDR", p)
			}
		}
	}

	// Database validation
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Issuance validation
	if !idPrefixPattern.MatchString(c.Issuance.IDPrefix) {
		return fmt.Errorf("issuance.id_prefix must be 1-16 uppercase letters or digits")
	}
	if c.Issuance.KeyBits < 2048 {
		return fmt.Errorf("issuance.key_bits must be at least 2048")
	}
	if c.Issuance.MaxFieldLength < 16 {
		return fmt.Errorf("issuance.max_field_length must be at least 16")
	}

	// QR validation
	if c.QR.Size < 64 || c.QR.Size > 2048 {
		return fmt.Errorf("qr.size must be between 64 and 2048")
	}
	if c.QR.Margin < 0 || c.QR.Margin > 16 {
		return fmt.Errorf("qr.margin must be between 0 and 16")
	}

	// Admin validation
	if c.Admin.Token == "" {
		return fmt.Errorf("admin.token is required")
	}
	if c.Admin.Token == "change-me" {
		fmt.Fprintf(os.Stderr, "WARNING: Using default admin token. Please change it in production!\n")
	}

	// Cache validation
	if c.Cache.Enabled {
		if d, err := parseDuration(c.Cache.LifeWindow); err != nil || d <= 0 {
			return fmt.Errorf("cache.life_window must be a positive duration")
		}
	}

	// Retention validation
	if d, err := parseDuration(c.Retention.VerificationLogMaxAge); err != nil || d <= 0 {
		return fmt.Errorf("retention.verification_log_max_age must be a positive duration")
	}
	if d, err := parseDuration(c.Retention.PruneInterval); err != nil || d <= 0 {
		return fmt.Errorf("retention.prune_interval must be a positive duration")
	}

	// Logging validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	return nil
}

// GetCacheLifeWindow returns the cache life window as time.Duration
func (c *Config) GetCacheLifeWindow() time.Duration {
	d, _ := parseDuration(c.Cache.LifeWindow)
	return d
}

// GetVerificationLogMaxAge returns the verification log retention as time.Duration
func (c *Config) GetVerificationLogMaxAge() time.Duration {
	d, _ := parseDuration(c.Retention.VerificationLogMaxAge)
	return d
}

// GetPruneInterval returns the prune interval as time.Duration
func (c *Config) GetPruneInterval() time.Duration {
	d, _ := parseDuration(c.Retention.PruneInterval)
	return d
}

// parseDuration parses duration with support for days (e.g., "90d")
func parseDuration(s string) (time.Duration, error) {
	// Handle "d" suffix for days
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err != nil {
			return 0, err
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file on top of Default()
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment variable overrides
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// Validate again after env overrides
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after env overrides: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if dbPath := os.Getenv("CERTSRV_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if listenAddr := os.Getenv("CERTSRV_LISTEN_ADDR"); listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	if metricsAddr, ok := os.LookupEnv("CERTSRV_METRICS_ADDR"); ok {
		cfg.Server.MetricsAddr = metricsAddr
	}

	if adminToken := os.Getenv("CERTSRV_ADMIN_TOKEN"); adminToken != "" {
		cfg.Admin.Token = adminToken
	}

	if totpSecret := os.Getenv("CERTSRV_ADMIN_TOTP_SECRET"); totpSecret != "" {
		cfg.Admin.TOTPSecret = totpSecret
	}

	if prefix := os.Getenv("CERTSRV_ID_PREFIX"); prefix != "" {
		cfg.Issuance.IDPrefix = prefix
	}

	if organizer := os.Getenv("CERTSRV_ORGANIZER_NAME"); organizer != "" {
		cfg.Issuance.OrganizerName = organizer
	}

	if bits := os.Getenv("CERTSRV_KEY_BITS"); bits != "" {
		n, err := strconv.Atoi(bits)
		if err != nil {
			return fmt.Errorf("CERTSRV_KEY_BITS is invalid: %w", err)
		}
		cfg.Issuance.KeyBits = n
	}

	if level := os.Getenv("CERTSRV_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return nil
}

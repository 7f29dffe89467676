package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/eventcert/internal/config"
)

func TestNew_Level(t *testing.T) {
	logger, closer := New(config.LoggingConfig{Level: "warn", Format: "json"})
	defer closer.Close()

	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger, _ = New(config.LoggingConfig{Level: "bogus"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, closer := New(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	logger.Info().Str("certificate_id", "IEEE-1").Msg("issued")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"certificate_id":"IEEE-1"`)
	assert.Contains(t, string(data), `"message":"issued"`)
}

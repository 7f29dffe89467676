package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "nested", "certs.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database))
	require.NoError(t, RunMigrations(database))

	var version int
	require.NoError(t, database.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	for _, table := range []string{"certificates", "verification_logs"} {
		var n int
		require.NoError(t, database.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&n))
		assert.Equal(t, 1, n, table)
	}
}

func TestRunMigrations_RejectsUnknownVersion(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "certs.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database))
	_, err = database.Exec(`INSERT INTO schema_version (version) VALUES (99)`)
	require.NoError(t, err)

	require.Error(t, RunMigrations(database))
}

func TestNew_CasefoldFunction(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "certs.db"))
	require.NoError(t, err)
	defer database.Close()

	tests := map[string]string{
		"ÉLODIE MÜLLER": "élodie müller",
		"Straße":        "strasse",
		"IEEE-1-ABC":    "ieee-1-abc",
		"":              "",
	}
	for in, want := range tests {
		var got string
		require.NoError(t, database.QueryRow(`SELECT casefold(?)`, in).Scan(&got))
		assert.Equal(t, want, got, in)
	}
}

func TestNew_ConnectionSettings(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "certs.db"))
	require.NoError(t, err)
	defer database.Close()

	var timeout int
	require.NoError(t, database.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, int(busyTimeout.Milliseconds()), timeout)

	var mode string
	require.NoError(t, database.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	assert.Equal(t, maxOpenConns, database.Stats().MaxOpenConnections)
}

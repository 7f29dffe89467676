package db

import (
	"database/sql"
	"fmt"
)

// currentSchemaVersion is the newest schema this binary knows how to create.
const currentSchemaVersion = 1

// RunMigrations executes all database migrations
func RunMigrations(db *DB) error {
	// Check if schema_version table exists
	var tableExists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	}

	if !tableExists {
		// First time initialization
		if err := initializeSchema(db); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		return nil
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow(`
		SELECT version FROM schema_version
		ORDER BY version DESC LIMIT 1
	`).Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	if currentVersion < 1 || currentVersion > currentSchemaVersion {
		return fmt.Errorf("invalid schema version: %d", currentVersion)
	}

	return nil
}

// initializeSchema creates all tables for a new database
func initializeSchema(db *DB) error {
	tx, err := db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		schemaVersionTable,
		certificatesTable,
		certificatesIndexes,
		verificationLogsTable,
		verificationLogsIndexes,
	} {
		if err := execSQL(tx, stmt); err != nil {
			return err
		}
	}

	// Insert initial schema version
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}

// execSQL executes a SQL statement
func execSQL(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}

// Schema definitions
const (
	schemaVersionTable = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	// created_at is unix milliseconds so ordering does not depend on the
	// driver's time formatting.
	certificatesTable = `
CREATE TABLE certificates (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    certificate_id   TEXT NOT NULL UNIQUE,
    participant_name TEXT NOT NULL,
    event_name       TEXT NOT NULL,
    event_date       TEXT NOT NULL,
    organizer_name   TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    public_key       TEXT NOT NULL UNIQUE,
    signature        TEXT NOT NULL,
    certificate_url  TEXT NOT NULL DEFAULT '',
    created_at       INTEGER NOT NULL
)`

	certificatesIndexes = `
CREATE INDEX idx_certs_participant ON certificates(participant_name);
CREATE INDEX idx_certs_event ON certificates(event_name);
CREATE INDEX idx_certs_created_at ON certificates(created_at)`

	verificationLogsTable = `
CREATE TABLE verification_logs (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp      INTEGER NOT NULL,
    mode           TEXT NOT NULL,
    outcome        TEXT NOT NULL,
    certificate_id TEXT,
    client_ip      TEXT NOT NULL,
    user_agent     TEXT
)`

	verificationLogsIndexes = `
CREATE INDEX idx_verif_timestamp ON verification_logs(timestamp);
CREATE INDEX idx_verif_outcome ON verification_logs(outcome);
CREATE INDEX idx_verif_certificate_id ON verification_logs(certificate_id)`
)

package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
)

// DriverName is the sqlite driver registered with the certificate store
// functions (see casefold).
const DriverName = "sqlite3_eventcert"

const (
	// Verification is read-heavy; WAL lets these connections read while
	// issuance holds the single write lock.
	maxOpenConns = 4
	busyTimeout  = 10 * time.Second
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", casefold, true)
		},
	})
}

var folder = cases.Fold()

// casefold is exposed to SQL as casefold(text). Unlike sqlite's lower() it
// folds the full Unicode range, so "ÉLODIE" and "élodie" compare equal.
func casefold(s string) string {
	return folder.String(s)
}

// DB wraps a SQLite database connection pool
type DB struct {
	*sql.DB
}

// New opens the certificate database at path, creating its directory
func New(path string) (*DB, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_txlock=immediate&_busy_timeout=%d",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// BeginTx starts a transaction
func (db *DB) BeginTx() (*sql.Tx, error) {
	return db.DB.Begin()
}

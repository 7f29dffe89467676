package repository

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentifier is returned when a certificate id is already taken.
	ErrDuplicateIdentifier = errors.New("duplicate certificate identifier")

	// ErrDuplicatePublicKey is returned when a public key is already bound to a certificate.
	ErrDuplicatePublicKey = errors.New("duplicate public key")
)

// uniqueViolation reports whether err is a UNIQUE constraint failure and
// returns the offending "table.column".
func uniqueViolation(err error) (string, bool) {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return "", false
	}

	// Message format: "UNIQUE constraint failed: certificates.certificate_id"
	msg := sqliteErr.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:], true
	}
	return msg, true
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adamscao/eventcert/internal/models"
)

const certColumns = `
	id, certificate_id, participant_name, event_name, event_date, organizer_name,
	description, public_key, signature, certificate_url, created_at`

// CertRepository handles certificate record data access
type CertRepository struct {
	db *sql.DB
}

// NewCertRepository creates a new certificate repository
func NewCertRepository(db *sql.DB) *CertRepository {
	return &CertRepository{db: db}
}

// Create inserts a new certificate record. Collisions on certificate_id or
// public_key are reported as ErrDuplicateIdentifier / ErrDuplicatePublicKey;
// no retry is attempted.
func (r *CertRepository) Create(ctx context.Context, cert *models.Certificate) error {
	query := `
		INSERT INTO certificates (
			certificate_id, participant_name, event_name, event_date, organizer_name,
			description, public_key, signature, certificate_url, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		cert.CertificateID,
		cert.ParticipantName,
		cert.EventName,
		cert.EventDate,
		cert.OrganizerName,
		cert.Description,
		cert.PublicKey,
		cert.Signature,
		cert.CertificateURL,
		cert.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			switch column {
			case "certificates.public_key":
				return ErrDuplicatePublicKey
			default:
				return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, cert.CertificateID)
			}
		}
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	cert.ID = id
	return nil
}

// GetByCertificateID retrieves a certificate by its exact identifier
func (r *CertRepository) GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE certificate_id = ?`

	cert, err := scanCert(r.db.QueryRowContext(ctx, query, certificateID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	return cert, nil
}

// ListByPublicKey returns up to limit certificates bound to the exact public key PEM
func (r *CertRepository) ListByPublicKey(ctx context.Context, publicKey string, limit int) ([]*models.Certificate, error) {
	query := `SELECT ` + certColumns + `
		FROM certificates
		WHERE public_key = ?
		ORDER BY created_at ASC, certificate_id ASC
		LIMIT ?`

	return r.list(ctx, query, publicKey, limit)
}

// Search returns certificates whose identifier, participant name or event name
// contains query, ignoring case across the full Unicode range (casefold is
// registered by the db driver). Results are ordered by
// creation time, oldest first, with the identifier as tie-break.
func (r *CertRepository) Search(ctx context.Context, query string, limit int) ([]*models.Certificate, error) {
	sqlQuery := `SELECT ` + certColumns + `
		FROM certificates
		WHERE instr(casefold(certificate_id), casefold(?1)) > 0
		   OR instr(casefold(participant_name), casefold(?1)) > 0
		   OR instr(casefold(event_name), casefold(?1)) > 0
		ORDER BY created_at ASC, certificate_id ASC
		LIMIT ?2`

	return r.list(ctx, sqlQuery, strings.TrimSpace(query), limit)
}

// List lists the most recently issued certificates
func (r *CertRepository) List(ctx context.Context, limit int) ([]*models.Certificate, error) {
	query := `SELECT ` + certColumns + `
		FROM certificates
		ORDER BY created_at DESC, certificate_id DESC
		LIMIT ?`

	return r.list(ctx, query, limit)
}

// SetURL records the location of the rendered certificate artifact
func (r *CertRepository) SetURL(ctx context.Context, certificateID, url string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE certificates SET certificate_url = ? WHERE certificate_id = ?`,
		url, certificateID,
	)
	if err != nil {
		return fmt.Errorf("failed to update certificate url: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the number of issued certificates
func (r *CertRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count certificates: %w", err)
	}
	return count, nil
}

func (r *CertRepository) list(ctx context.Context, query string, args ...any) ([]*models.Certificate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var certs []*models.Certificate
	for rows.Next() {
		cert, err := scanCert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate certificates: %w", err)
	}

	return certs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCert(row rowScanner) (*models.Certificate, error) {
	cert := &models.Certificate{}
	var createdAt int64

	err := row.Scan(
		&cert.ID,
		&cert.CertificateID,
		&cert.ParticipantName,
		&cert.EventName,
		&cert.EventDate,
		&cert.OrganizerName,
		&cert.Description,
		&cert.PublicKey,
		&cert.Signature,
		&cert.CertificateURL,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	cert.CreatedAt = time.UnixMilli(createdAt).UTC()
	return cert, nil
}

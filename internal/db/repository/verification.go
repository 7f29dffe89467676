package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adamscao/eventcert/internal/models"
)

// VerificationRepository handles verification log data access
type VerificationRepository struct {
	db *sql.DB
}

// NewVerificationRepository creates a new verification log repository
func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create creates a new verification log entry
func (r *VerificationRepository) Create(ctx context.Context, log *models.VerificationLog) error {
	query := `
		INSERT INTO verification_logs (timestamp, mode, outcome, certificate_id, client_ip, user_agent)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC().Truncate(time.Millisecond)
	}

	result, err := r.db.ExecContext(ctx, query,
		log.Timestamp.UnixMilli(),
		log.Mode,
		log.Outcome,
		nullString(log.CertificateID),
		log.ClientIP,
		nullString(log.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("failed to create verification log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// List lists verification logs, newest first, optionally filtered by outcome
func (r *VerificationRepository) List(ctx context.Context, outcome string, limit int) ([]*models.VerificationLog, error) {
	query := `
		SELECT id, timestamp, mode, outcome, certificate_id, client_ip, user_agent
		FROM verification_logs
		WHERE 1=1
	`
	args := []any{}

	if outcome != "" {
		query += " AND outcome = ?"
		args = append(args, outcome)
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.VerificationLog

	for rows.Next() {
		log := &models.VerificationLog{}
		var ts int64
		var certificateID, userAgent sql.NullString

		err := rows.Scan(
			&log.ID,
			&ts,
			&log.Mode,
			&log.Outcome,
			&certificateID,
			&log.ClientIP,
			&userAgent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification log: %w", err)
		}

		log.Timestamp = time.UnixMilli(ts).UTC()
		if certificateID.Valid {
			log.CertificateID = certificateID.String
		}
		if userAgent.Valid {
			log.UserAgent = userAgent.String
		}

		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verification logs: %w", err)
	}

	return logs, nil
}

// CountSince counts verification logs recorded at or after since
func (r *VerificationRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM verification_logs
		WHERE timestamp >= ?
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, since.UnixMilli()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count verification logs: %w", err)
	}

	return count, nil
}

// DeleteOld deletes verification logs older than the given time
func (r *VerificationRepository) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM verification_logs WHERE timestamp < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old verification logs: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

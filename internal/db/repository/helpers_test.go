package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adamscao/eventcert/internal/db"
	"github.com/adamscao/eventcert/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "certs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database))
	return database.DB
}

func testCert(id, participant, event string, createdAt time.Time) *models.Certificate {
	return &models.Certificate{
		CertificateID:   id,
		ParticipantName: participant,
		EventName:       event,
		EventDate:       "2024-03-01",
		OrganizerName:   "IEEE SB NITC",
		PublicKey:       "-----BEGIN PUBLIC KEY-----\n" + id + "\n-----END PUBLIC KEY-----\n",
		Signature:       "c2ln",
		CreatedAt:       createdAt,
	}
}

package cert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func janeDoeFields() Fields {
	return Fields{
		ParticipantName: "Jane Doe",
		EventName:       "Tech Workshop",
		EventDate:       "2024-03-01",
		CertificateID:   "IEEE-1709251200000-0A1B2C3D",
		OrganizerName:   "IEEE SB NITC",
	}
}

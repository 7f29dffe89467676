package cert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	i := NewIssuer(NewIDGenerator("IEEE"), NewKeyGenerator(MinKeyBits), "IEEE SB NITC")
	i.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.FixedZone("IST", 19800)) }
	return i
}

func TestIssuer_Issue(t *testing.T) {
	issued, err := newTestIssuer().Issue(IssueRequest{
		ParticipantName: "Jane Doe",
		EventName:       "Tech Workshop",
		EventDate:       "2024-03-01",
		OrganizerName:   "IEEE SB NITC",
	})
	require.NoError(t, err)

	rec := issued.Record
	assert.Regexp(t, idPattern, rec.CertificateID)
	assert.Equal(t, "Jane Doe", rec.ParticipantName)
	assert.Empty(t, rec.Description)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.Equal(t, 123*time.Millisecond, time.Duration(rec.CreatedAt.Nanosecond()))

	payload := CanonicalPayload(FieldsFromRecord(rec))
	assert.True(t, Verify(payload, rec.Signature, rec.PublicKey))

	// The caller can re-sign with the returned private key.
	sig, err := Sign(payload, issued.PrivateKeyPEM)
	require.NoError(t, err)
	assert.Equal(t, rec.Signature, sig)
}

func TestIssuer_DefaultOrganizerAndTrimming(t *testing.T) {
	issued, err := newTestIssuer().Issue(IssueRequest{
		ParticipantName: "  Jane Doe ",
		EventName:       "Tech Workshop",
		EventDate:       "2024-03-01",
		Description:     " Hands-on ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", issued.Record.ParticipantName)
	assert.Equal(t, "IEEE SB NITC", issued.Record.OrganizerName)
	assert.Equal(t, "Hands-on", issued.Record.Description)
}

func TestIssuer_MissingFields(t *testing.T) {
	i := NewIssuer(NewIDGenerator("IEEE"), NewKeyGenerator(MinKeyBits), "")

	_, err := i.Issue(IssueRequest{ParticipantName: "Jane Doe", EventName: " "})
	require.ErrorIs(t, err, ErrInvalidFields)
	assert.Contains(t, err.Error(), "event_name, event_date, organizer_name")
}

func TestIssuer_EntropyUnavailable(t *testing.T) {
	i := NewIssuer(newIDGenerator("IEEE", failingReader{}, time.Now), NewKeyGenerator(MinKeyBits), "Org")

	_, err := i.Issue(IssueRequest{ParticipantName: "a", EventName: "b", EventDate: "c"})
	require.ErrorIs(t, err, ErrEntropyUnavailable)
}

package verify

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/eventcert/internal/cert"
	"github.com/adamscao/eventcert/internal/db/repository"
	"github.com/adamscao/eventcert/internal/models"
)

// memStore is an in-memory Store without uniqueness enforcement.
type memStore struct {
	certs []*models.Certificate
	err   error
}

func (s *memStore) Search(_ context.Context, query string, limit int) ([]*models.Certificate, error) {
	if s.err != nil {
		return nil, s.err
	}
	q := strings.ToLower(query)
	var out []*models.Certificate
	for _, c := range s.certs {
		if strings.Contains(strings.ToLower(c.CertificateID), q) ||
			strings.Contains(strings.ToLower(c.ParticipantName), q) ||
			strings.Contains(strings.ToLower(c.EventName), q) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetByCertificateID(_ context.Context, id string) (*models.Certificate, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, c := range s.certs {
		if c.CertificateID == id {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListByPublicKey(_ context.Context, publicKey string, limit int) ([]*models.Certificate, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*models.Certificate
	for _, c := range s.certs {
		if c.PublicKey == publicKey && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

var (
	issueOnce sync.Once
	janeDoe   *cert.Issued
	issueErr  error
)

// issueJaneDoe issues the reference certificate once per test binary.
func issueJaneDoe(t *testing.T) *cert.Issued {
	t.Helper()

	issueOnce.Do(func() {
		issuer := cert.NewIssuer(cert.NewIDGenerator("IEEE"), cert.NewKeyGenerator(cert.MinKeyBits), "")
		janeDoe, issueErr = issuer.Issue(cert.IssueRequest{
			ParticipantName: "Jane Doe",
			EventName:       "Tech Workshop",
			EventDate:       "2024-03-01",
			OrganizerName:   "IEEE SB NITC",
		})
	})
	require.NoError(t, issueErr)
	return janeDoe
}

func newJaneDoeResolver(t *testing.T) (*Resolver, *cert.Issued) {
	issued := issueJaneDoe(t)
	return NewResolver(&memStore{certs: []*models.Certificate{issued.Record}}), issued
}

func TestResolve_KeyModeValid(t *testing.T) {
	r, issued := newJaneDoeResolver(t)

	sig, err := cert.Sign(cert.CanonicalPayload(cert.FieldsFromRecord(issued.Record)), issued.PrivateKeyPEM)
	require.NoError(t, err)

	res, err := r.Resolve(context.Background(), Request{Mode: ModeKey, PublicKey: issued.Record.PublicKey, Signature: sig})
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.True(t, res.Valid)
	assert.Equal(t, ReasonNone, res.Reason)
	assert.Equal(t, issued.Record.CertificateID, res.Record.CertificateID)
	assert.Equal(t, models.OutcomeValid, res.Outcome())
}

func TestResolve_KeyModeNormalizesPEM(t *testing.T) {
	r, issued := newJaneDoeResolver(t)

	pub := strings.ReplaceAll(strings.TrimSpace(issued.Record.PublicKey), "\n", "\r\n")
	res, err := r.Resolve(context.Background(), Request{Mode: ModeKey, PublicKey: pub, Signature: issued.Record.Signature + "\n"})
	require.NoError(t, err)

	assert.True(t, res.Valid)
}

func TestResolve_KeyModeRandomSignature(t *testing.T) {
	r, issued := newJaneDoeResolver(t)

	raw, err := base64.StdEncoding.DecodeString(issued.Record.Signature)
	require.NoError(t, err)
	_, err = rand.Read(raw)
	require.NoError(t, err)
	forged := base64.StdEncoding.EncodeToString(raw)
	require.Len(t, forged, len(issued.Record.Signature))

	res, err := r.Resolve(context.Background(), Request{Mode: ModeKey, PublicKey: issued.Record.PublicKey, Signature: forged})
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonInvalidSignature, res.Reason)
	assert.Equal(t, models.OutcomeInvalidSignature, res.Outcome())
}

func TestResolve_KeyModeGarbageSignature(t *testing.T) {
	r, issued := newJaneDoeResolver(t)

	res, err := r.Resolve(context.Background(), Request{Mode: ModeKey, PublicKey: issued.Record.PublicKey, Signature: "!!not base64!!"})
	require.NoError(t, err)

	assert.Equal(t, ReasonInvalidSignature, res.Reason)
}

func TestResolve_KeyModeUnknownKey(t *testing.T) {
	r, issued := newJaneDoeResolver(t)

	res, err := r.Resolve(context.Background(), Request{
		Mode:      ModeKey,
		PublicKey: "-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----\n",
		Signature: issued.Record.Signature,
	})
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonNotFound, res.Reason)
}

func TestResolve_KeyModeAmbiguous(t *testing.T) {
	issued := issueJaneDoe(t)
	clone := *issued.Record
	clone.CertificateID = "IEEE-2-FFFFFFFF"
	r := NewResolver(&memStore{certs: []*models.Certificate{issued.Record, &clone}})

	res, err := r.Resolve(context.Background(), Request{Mode: ModeKey, PublicKey: issued.Record.PublicKey, Signature: issued.Record.Signature})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.Nil(t, res.Record)
	assert.Equal(t, ReasonAmbiguousKey, res.Reason)
}

func TestResolve_KeyModeMissingInput(t *testing.T) {
	r, issued := newJaneDoeResolver(t)

	for _, req := range []Request{
		{Mode: ModeKey, Signature: issued.Record.Signature},
		{Mode: ModeKey, PublicKey: issued.Record.PublicKey},
		{Mode: ModeKey, PublicKey: " ", Signature: " "},
	} {
		res, err := r.Resolve(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, ReasonMalformedInput, res.Reason)
		assert.False(t, res.Found)
	}
}

func TestResolve_SearchMode(t *testing.T) {
	r, issued := newJaneDoeResolver(t)

	res, err := r.Resolve(context.Background(), Request{Mode: ModeSearch, Query: "Jane"})
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Valid)
	assert.Equal(t, issued.Record.CertificateID, res.Record.CertificateID)

	res, err = r.Resolve(context.Background(), Request{Mode: ModeSearch, Query: "workshop"})
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = r.Resolve(context.Background(), Request{Mode: ModeSearch, Query: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, ReasonNotFound, res.Reason)

	res, err = r.Resolve(context.Background(), Request{Mode: ModeSearch, Query: "   "})
	require.NoError(t, err)
	assert.Equal(t, ReasonMalformedInput, res.Reason)
}

func TestResolve_QRMode(t *testing.T) {
	r, issued := newJaneDoeResolver(t)
	id := issued.Record.CertificateID

	content, err := cert.NewQRCodec(0, 0).Content(cert.QRPayload{CertificateID: id})
	require.NoError(t, err)

	tests := []struct {
		name   string
		data   string
		found  bool
		reason Reason
	}{
		{"structured", content, true, ReasonNone},
		{"bare id", id, true, ReasonNone},
		{"extra fields", `{"certificateId":"` + id + `","v":2}`, true, ReasonNone},
		{"not json", "not-json-at-all", false, ReasonNotFound},
		{"structured unknown id", `{"certificateId":"IEEE-0-00000000"}`, false, ReasonNotFound},
		{"structured without id", `{"id":"` + id + `"}`, false, ReasonMalformedInput},
		{"empty", "  ", false, ReasonMalformedInput},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), Request{Mode: ModeQR, Data: test.data})
			require.NoError(t, err)

			assert.Equal(t, test.found, res.Found)
			assert.Equal(t, test.found, res.Valid)
			assert.Equal(t, test.reason, res.Reason)
		})
	}
}

func TestResolve_UnknownMode(t *testing.T) {
	r := NewResolver(&memStore{})

	_, err := r.Resolve(context.Background(), Request{Mode: "email"})
	require.ErrorIs(t, err, ErrUnknownMode)
	assert.False(t, Mode("email").Valid())
	assert.True(t, ModeQR.Valid())
}

func TestResolve_StoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	r := NewResolver(&memStore{err: boom})

	for _, req := range []Request{
		{Mode: ModeSearch, Query: "jane"},
		{Mode: ModeQR, Data: "IEEE-1"},
		{Mode: ModeKey, PublicKey: "pk", Signature: "sig"},
	} {
		res, err := r.Resolve(context.Background(), req)
		require.ErrorIs(t, err, ErrStore)
		require.ErrorIs(t, err, boom)
		assert.Nil(t, res)
	}
}

func TestResolve_Concurrent(t *testing.T) {
	r, issued := newJaneDoeResolver(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Resolve(context.Background(), Request{Mode: ModeKey, PublicKey: issued.Record.PublicKey, Signature: issued.Record.Signature})
			assert.NoError(t, err)
			assert.True(t, res.Valid)
		}()
	}
	wg.Wait()
}

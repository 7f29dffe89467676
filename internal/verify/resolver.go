// Package verify resolves certificate verification requests against a store.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adamscao/eventcert/internal/cert"
	"github.com/adamscao/eventcert/internal/db/repository"
	"github.com/adamscao/eventcert/internal/models"
)

var (
	// ErrUnknownMode is returned for a mode other than search, qr or key.
	ErrUnknownMode = errors.New("unknown verification mode")

	// ErrStore wraps infrastructure failures of the certificate store.
	ErrStore = errors.New("certificate store failure")
)

// Store is the read side of the certificate store. GetByCertificateID
// returns repository.ErrNotFound when nothing matches.
type Store interface {
	Search(ctx context.Context, query string, limit int) ([]*models.Certificate, error)
	GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error)
	ListByPublicKey(ctx context.Context, publicKey string, limit int) ([]*models.Certificate, error)
}

// Resolver dispatches verification requests. It holds no mutable state and is
// safe for concurrent use.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver reading from store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve runs the verification described by req. A non-nil error is only
// returned for an unknown mode (ErrUnknownMode) or a store failure (ErrStore);
// every certificate-level outcome is reported through Result.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	switch req.Mode {
	case ModeSearch:
		return r.search(ctx, req.Query)
	case ModeQR:
		return r.qr(ctx, req.Data)
	case ModeKey:
		return r.key(ctx, req.PublicKey, req.Signature)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
}

func (r *Resolver) search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return malformed(), nil
	}

	certs, err := r.store.Search(ctx, query, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if len(certs) == 0 {
		return notFound(), nil
	}

	return valid(certs[0]), nil
}

func (r *Resolver) qr(ctx context.Context, data string) (*Result, error) {
	if strings.TrimSpace(data) == "" {
		return malformed(), nil
	}

	decoded := cert.DecodeQR(data)
	id := decoded.Payload.CertificateID
	if decoded.Kind == cert.DecodedStructured && id == "" {
		return malformed(), nil
	}

	rec, err := r.store.GetByCertificateID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	return valid(rec), nil
}

func (r *Resolver) key(ctx context.Context, publicKey, signature string) (*Result, error) {
	publicKey = cert.NormalizePEM(publicKey)
	signature = strings.TrimSpace(signature)
	if publicKey == "" || signature == "" {
		return malformed(), nil
	}

	certs, err := r.store.ListByPublicKey(ctx, publicKey, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	switch len(certs) {
	case 0:
		return notFound(), nil
	case 1:
	default:
		return &Result{Reason: ReasonAmbiguousKey}, nil
	}

	// The payload is rebuilt from the stored record, never from caller input.
	rec := certs[0]
	if !cert.Verify(cert.CanonicalPayload(cert.FieldsFromRecord(rec)), signature, rec.PublicKey) {
		return &Result{Found: true, Record: rec, Reason: ReasonInvalidSignature}, nil
	}

	return valid(rec), nil
}

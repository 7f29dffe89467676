package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adamscao/eventcert/internal/cert"
	"github.com/adamscao/eventcert/internal/db/repository"
	"github.com/adamscao/eventcert/internal/metrics"
	"github.com/adamscao/eventcert/internal/models"
	"github.com/adamscao/eventcert/internal/policy"
	"github.com/adamscao/eventcert/pkg/keyutil"
)

// CertificateStore is the write side of the certificate store
type CertificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	SetURL(ctx context.Context, certificateID, url string) error
}

// CertificateReader loads a single certificate, possibly through a cache
type CertificateReader interface {
	GetByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error)
}

// CacheInvalidator drops stale cached records
type CacheInvalidator interface {
	Invalidate(certificateID string)
}

// CertHandler handles certificate issuance and lookup
type CertHandler struct {
	issuer      *cert.Issuer
	validator   *policy.Validator
	store       CertificateStore
	reader      CertificateReader
	invalidator CacheInvalidator
	qr          *cert.QRCodec
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewCertHandler creates a new certificate handler. validator and invalidator
// may be nil.
func NewCertHandler(
	issuer *cert.Issuer,
	validator *policy.Validator,
	store CertificateStore,
	reader CertificateReader,
	invalidator CacheInvalidator,
	qr *cert.QRCodec,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *CertHandler {
	return &CertHandler{
		issuer:      issuer,
		validator:   validator,
		store:       store,
		reader:      reader,
		invalidator: invalidator,
		qr:          qr,
		metrics:     m,
		logger:      logger,
	}
}

// IssueRequest represents a certificate issue request
type IssueRequest struct {
	ParticipantName string `json:"participant_name"`
	EventName       string `json:"event_name"`
	EventDate       string `json:"event_date"`
	OrganizerName   string `json:"organizer_name"`
	Description     string `json:"description"`
}

// IssueResponse represents a certificate issue response. The private key is
// returned exactly once and is not stored by the server.
type IssueResponse struct {
	Certificate *CertificateView `json:"certificate"`
	PublicKey   string           `json:"public_key"`
	Signature   string           `json:"signature"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	PrivateKey  string           `json:"private_key"`
}

// IssueCertificate handles certificate issuance
// POST /v1/certificates
func (h *CertHandler) IssueCertificate(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.ObserveIssue(metrics.IssueInvalid)
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	issueReq := cert.IssueRequest{
		ParticipantName: req.ParticipantName,
		EventName:       req.EventName,
		EventDate:       req.EventDate,
		OrganizerName:   req.OrganizerName,
		Description:     req.Description,
	}

	if h.validator != nil {
		if err := h.validator.ValidateIssueRequest(issueReq); err != nil {
			h.metrics.ObserveIssue(metrics.IssueInvalid)
			RespondError(c, http.StatusBadRequest, "policy_violation", err.Error())
			return
		}
	}

	issued, err := h.issuer.Issue(issueReq)
	if err != nil {
		if errors.Is(err, cert.ErrInvalidFields) {
			h.metrics.ObserveIssue(metrics.IssueInvalid)
			RespondError(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.metrics.ObserveIssue(metrics.IssueError)
		h.logger.Error().Err(err).Msg("certificate issuance failed")
		RespondError(c, http.StatusInternalServerError, "issuance_failed", "Failed to issue certificate")
		return
	}

	rec := issued.Record
	if err := h.store.Create(c.Request.Context(), rec); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateIdentifier):
			h.metrics.ObserveIssue(metrics.IssueDuplicate)
			RespondError(c, http.StatusConflict, "duplicate_identifier", "Certificate identifier already exists")
		case errors.Is(err, repository.ErrDuplicatePublicKey):
			h.metrics.ObserveIssue(metrics.IssueDuplicate)
			RespondError(c, http.StatusConflict, "duplicate_public_key", "Public key already bound to a certificate")
		default:
			h.metrics.ObserveIssue(metrics.IssueError)
			h.logger.Error().Err(err).Str("certificate_id", rec.CertificateID).Msg("failed to store certificate")
			RespondError(c, http.StatusInternalServerError, "database_error", "Failed to store certificate")
		}
		return
	}

	fingerprint, err := keyutil.Fingerprint(rec.PublicKey)
	if err != nil {
		h.logger.Warn().Err(err).Str("certificate_id", rec.CertificateID).Msg("failed to fingerprint public key")
	}

	h.metrics.ObserveIssue(metrics.IssueOK)
	h.logger.Info().
		Str("certificate_id", rec.CertificateID).
		Str("fingerprint", fingerprint).
		Str("event", rec.EventName).
		Msg("certificate issued")

	c.JSON(http.StatusCreated, IssueResponse{
		Certificate: newCertificateView(rec),
		PublicKey:   rec.PublicKey,
		Signature:   rec.Signature,
		Fingerprint: fingerprint,
		PrivateKey:  issued.PrivateKeyPEM,
	})
}

// GetCertificate returns the public view of a certificate
// GET /v1/certificates/:id
func (h *CertHandler) GetCertificate(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	RespondSuccess(c, newCertificateView(rec))
}

// GetQRCode renders the certificate QR code
// GET /v1/certificates/:id/qr.png
func (h *CertHandler) GetQRCode(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}

	png, err := h.qr.Encode(cert.QRPayload{CertificateID: rec.CertificateID})
	if err != nil {
		h.logger.Error().Err(err).Str("certificate_id", rec.CertificateID).Msg("failed to render qr code")
		RespondError(c, http.StatusInternalServerError, "qr_error", "Failed to render QR code")
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

// UpdateURLRequest represents a certificate artifact URL update
type UpdateURLRequest struct {
	CertificateURL string `json:"certificate_url" binding:"required"`
}

// UpdateURL records where the rendered certificate was uploaded
// PATCH /v1/certificates/:id/url
func (h *CertHandler) UpdateURL(c *gin.Context) {
	var req UpdateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	u, err := url.ParseRequestURI(req.CertificateURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", "certificate_url must be an absolute http(s) URL")
		return
	}

	id := c.Param("id")
	if err := h.store.SetURL(c.Request.Context(), id, req.CertificateURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "not_found", "Certificate not found")
			return
		}
		h.logger.Error().Err(err).Str("certificate_id", id).Msg("failed to update certificate url")
		RespondError(c, http.StatusInternalServerError, "database_error", "Failed to update certificate")
		return
	}

	if h.invalidator != nil {
		h.invalidator.Invalidate(id)
	}

	RespondSuccess(c, gin.H{"status": "ok"})
}

func (h *CertHandler) load(c *gin.Context) (*models.Certificate, bool) {
	id := c.Param("id")
	rec, err := h.reader.GetByCertificateID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "not_found", "Certificate not found")
			return nil, false
		}
		h.logger.Error().Err(err).Str("certificate_id", id).Msg("failed to load certificate")
		RespondError(c, http.StatusInternalServerError, "database_error", "Failed to load certificate")
		return nil, false
	}
	return rec, true
}

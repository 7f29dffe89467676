package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adamscao/eventcert/internal/metrics"
	"github.com/adamscao/eventcert/internal/models"
	"github.com/adamscao/eventcert/internal/verify"
)

// Verification error messages. Signature failures never say which part was wrong.
const (
	msgNotFound         = "Certificate not found"
	msgInvalidSignature = "Invalid signature or public key"
	msgMalformed        = "Missing or malformed verification input"
	msgAmbiguousKey     = "Public key is not unique"
	msgInvalidType      = "Invalid verification type"
	msgFailed           = "Verification failed"
)

// VerificationLogWriter persists verification attempts.
type VerificationLogWriter interface {
	Create(ctx context.Context, log *models.VerificationLog) error
}

// VerifyHandler handles public certificate verification
type VerifyHandler struct {
	resolver *verify.Resolver
	logs     VerificationLogWriter
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewVerifyHandler creates a new verify handler. logs may be nil to skip
// recording attempts.
func NewVerifyHandler(resolver *verify.Resolver, logs VerificationLogWriter, m *metrics.Metrics, logger zerolog.Logger) *VerifyHandler {
	return &VerifyHandler{
		resolver: resolver,
		logs:     logs,
		metrics:  m,
		logger:   logger,
	}
}

// VerifyRequest represents a verification request
type VerifyRequest struct {
	Type      string `json:"type"`
	Query     string `json:"query"`
	Data      string `json:"data"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// VerifyResponse represents a verification response
type VerifyResponse struct {
	IsValid     bool             `json:"isValid"`
	Certificate *CertificateView `json:"certificate,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Verify resolves a certificate by search, qr or key
// POST /verify
func (h *VerifyHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, VerifyResponse{Error: "Invalid request body"})
		return
	}

	mode := verify.Mode(req.Type)
	if !mode.Valid() {
		h.metrics.ObserveVerification("unknown", models.OutcomeMalformedInput, 0)
		c.JSON(http.StatusBadRequest, VerifyResponse{Error: msgInvalidType})
		return
	}

	start := time.Now()
	res, err := h.resolver.Resolve(c.Request.Context(), verify.Request{
		Mode:      mode,
		Query:     req.Query,
		Data:      req.Data,
		PublicKey: req.PublicKey,
		Signature: req.Signature,
	})
	elapsed := time.Since(start)

	if err != nil {
		h.metrics.ObserveVerification(string(mode), models.OutcomeError, elapsed)
		h.record(c, mode, models.OutcomeError, "")
		h.logger.Error().Err(err).Str("mode", string(mode)).Msg("verification failed")
		c.JSON(http.StatusInternalServerError, VerifyResponse{Error: msgFailed})
		return
	}

	outcome := res.Outcome()
	h.metrics.ObserveVerification(string(mode), outcome, elapsed)

	certificateID := ""
	if res.Record != nil {
		certificateID = res.Record.CertificateID
	}
	h.record(c, mode, outcome, certificateID)

	c.JSON(http.StatusOK, toVerifyResponse(res))
}

func toVerifyResponse(res *verify.Result) VerifyResponse {
	if res.Valid {
		return VerifyResponse{IsValid: true, Certificate: newCertificateView(res.Record)}
	}

	switch res.Reason {
	case verify.ReasonInvalidSignature:
		return VerifyResponse{Error: msgInvalidSignature}
	case verify.ReasonMalformedInput:
		return VerifyResponse{Error: msgMalformed}
	case verify.ReasonAmbiguousKey:
		return VerifyResponse{Error: msgAmbiguousKey}
	default:
		return VerifyResponse{Error: msgNotFound}
	}
}

// record stores the attempt. Failures are logged and never change the response.
func (h *VerifyHandler) record(c *gin.Context, mode verify.Mode, outcome, certificateID string) {
	if h.logs == nil {
		return
	}

	err := h.logs.Create(c.Request.Context(), &models.VerificationLog{
		Timestamp:     time.Now().UTC(),
		Mode:          string(mode),
		Outcome:       outcome,
		CertificateID: certificateID,
		ClientIP:      GetClientIP(c),
		UserAgent:     c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to record verification attempt")
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adamscao/eventcert/internal/models"
)

// CertificateLister reads issued certificates in bulk
type CertificateLister interface {
	List(ctx context.Context, limit int) ([]*models.Certificate, error)
	Count(ctx context.Context) (int, error)
}

// VerificationLogReader reads recorded verification attempts
type VerificationLogReader interface {
	List(ctx context.Context, outcome string, limit int) ([]*models.VerificationLog, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// AdminHandler handles administrative operations
type AdminHandler struct {
	certs  CertificateLister
	logs   VerificationLogReader
	logger zerolog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(certs CertificateLister, logs VerificationLogReader, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		certs:  certs,
		logs:   logs,
		logger: logger,
	}
}

// ListCertificates lists recently issued certificates
// GET /v1/admin/certificates
func (h *AdminHandler) ListCertificates(c *gin.Context) {
	certs, err := h.certs.List(c.Request.Context(), queryLimit(c, 50, 500))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list certificates")
		RespondError(c, http.StatusInternalServerError, "database_error", "Failed to list certificates")
		return
	}

	views := make([]*CertificateView, 0, len(certs))
	for _, rec := range certs {
		views = append(views, newCertificateView(rec))
	}
	RespondSuccess(c, gin.H{"certificates": views})
}

// ListVerifications lists recent verification attempts, optionally filtered by outcome
// GET /v1/admin/verifications
func (h *AdminHandler) ListVerifications(c *gin.Context) {
	logs, err := h.logs.List(c.Request.Context(), c.Query("outcome"), queryLimit(c, 100, 1000))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list verifications")
		RespondError(c, http.StatusInternalServerError, "database_error", "Failed to list verifications")
		return
	}

	if logs == nil {
		logs = []*models.VerificationLog{}
	}
	RespondSuccess(c, gin.H{"verifications": logs})
}

// StatsResponse summarizes issuance and verification activity
type StatsResponse struct {
	TotalCertificates   int `json:"totalCertificates"`
	RecentVerifications int `json:"recentVerifications"`
}

// Stats reports certificate totals and verifications in the last 24 hours
// GET /v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.certs.Count(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count certificates")
		RespondError(c, http.StatusInternalServerError, "database_error", "Failed to fetch stats")
		return
	}

	recent, err := h.logs.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count verifications")
		RespondError(c, http.StatusInternalServerError, "database_error", "Failed to fetch stats")
		return
	}

	RespondSuccess(c, StatsResponse{
		TotalCertificates:   total,
		RecentVerifications: recent,
	})
}

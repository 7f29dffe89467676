package models

import "time"

// VerificationLog represents one verification attempt
type VerificationLog struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Mode          string    `json:"mode"`
	Outcome       string    `json:"outcome"`
	CertificateID string    `json:"certificate_id,omitempty"`
	ClientIP      string    `json:"client_ip"`
	UserAgent     string    `json:"user_agent,omitempty"`
}

// Verification outcome constants
const (
	OutcomeValid            = "valid"
	OutcomeNotFound         = "not_found"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeMalformedInput   = "malformed_input"
	OutcomeAmbiguousKey     = "ambiguous_key"
	OutcomeError            = "error"
)

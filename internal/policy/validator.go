// Package policy applies deployment rules to issuance requests before any key
// material is generated.
package policy

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/adamscao/eventcert/internal/cert"
	"github.com/adamscao/eventcert/internal/config"
)

// ErrPolicyViolation is returned when a request breaks a configured rule.
var ErrPolicyViolation = errors.New("issuance policy violation")

// Validator validates certificate issue requests against policy
type Validator struct {
	maxFieldLength  int
	eventDateLayout string
}

// NewValidator creates a new policy validator
func NewValidator(cfg config.IssuanceConfig) *Validator {
	return &Validator{
		maxFieldLength:  cfg.MaxFieldLength,
		eventDateLayout: cfg.EventDateLayout,
	}
}

// ValidateIssueRequest checks field lengths, rejects control characters and,
// when a layout is configured, requires the event date to parse.
// Missing fields are left to the issuer.
func (v *Validator) ValidateIssueRequest(req cert.IssueRequest) error {
	fields := []struct {
		name  string
		value string
	}{
		{"participant_name", req.ParticipantName},
		{"event_name", req.EventName},
		{"event_date", req.EventDate},
		{"organizer_name", req.OrganizerName},
		{"description", req.Description},
	}

	for _, f := range fields {
		value := strings.TrimSpace(f.value)
		if v.maxFieldLength > 0 && utf8.RuneCountInString(value) > v.maxFieldLength {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrPolicyViolation, f.name, v.maxFieldLength)
		}
		if strings.IndexFunc(value, unicode.IsControl) >= 0 {
			return fmt.Errorf("%w: %s contains control characters", ErrPolicyViolation, f.name)
		}
	}

	date := strings.TrimSpace(req.EventDate)
	if v.eventDateLayout != "" && date != "" {
		if _, err := time.Parse(v.eventDateLayout, date); err != nil {
			return fmt.Errorf("%w: event_date must match %s", ErrPolicyViolation, v.eventDateLayout)
		}
	}

	return nil
}

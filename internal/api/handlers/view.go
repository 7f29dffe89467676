package handlers

import (
	"time"

	"github.com/adamscao/eventcert/internal/models"
)

// CertificateView is the public projection of a certificate record.
// It never includes the signature.
type CertificateView struct {
	ID              string    `json:"id"`
	ParticipantName string    `json:"participantName"`
	EventName       string    `json:"eventName"`
	EventDate       string    `json:"eventDate"`
	OrganizerName   string    `json:"organizerName"`
	Description     string    `json:"description"`
	IssueDate       time.Time `json:"issueDate"`
	CertificateURL  string    `json:"certificateUrl,omitempty"`
}

func newCertificateView(c *models.Certificate) *CertificateView {
	return &CertificateView{
		ID:              c.CertificateID,
		ParticipantName: c.ParticipantName,
		EventName:       c.EventName,
		EventDate:       c.EventDate,
		OrganizerName:   c.OrganizerName,
		Description:     c.Description,
		IssueDate:       c.CreatedAt,
		CertificateURL:  c.CertificateURL,
	}
}

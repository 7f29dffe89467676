package models

import "time"

// Certificate represents an issued event participation certificate
type Certificate struct {
	ID              int64     `json:"-"`
	CertificateID   string    `json:"certificate_id"`
	ParticipantName string    `json:"participant_name"`
	EventName       string    `json:"event_name"`
	EventDate       string    `json:"event_date"`
	OrganizerName   string    `json:"organizer_name"`
	Description     string    `json:"description,omitempty"`
	PublicKey       string    `json:"public_key"` // PEM, SPKI
	Signature       string    `json:"signature"`  // base64 over the canonical payload
	CertificateURL  string    `json:"certificate_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

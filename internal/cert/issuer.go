package cert

import (
	"fmt"
	"strings"
	"time"

	"github.com/adamscao/eventcert/internal/models"
)

// IssueRequest carries the caller-supplied certificate fields.
type IssueRequest struct {
	ParticipantName string
	EventName       string
	EventDate       string
	OrganizerName   string
	Description     string
}

// Issued is the outcome of a successful issuance. The private key is handed
// to the caller only and is not part of Record.
type Issued struct {
	Record        *models.Certificate
	PrivateKeyPEM string
}

// Issuer creates signed certificate records. It does not persist anything.
type Issuer struct {
	ids              *IDGenerator
	keys             *KeyGenerator
	now              func() time.Time
	defaultOrganizer string
}

// NewIssuer creates an issuer. defaultOrganizer is used when a request leaves
// the organizer empty.
func NewIssuer(ids *IDGenerator, keys *KeyGenerator, defaultOrganizer string) *Issuer {
	return &Issuer{
		ids:              ids,
		keys:             keys,
		now:              time.Now,
		defaultOrganizer: defaultOrganizer,
	}
}

// Issue generates an identifier and key pair, signs the canonical payload and
// returns the record together with the private key.
func (i *Issuer) Issue(req IssueRequest) (*Issued, error) {
	fields, err := i.normalize(req)
	if err != nil {
		return nil, err
	}

	id, err := i.ids.Generate()
	if err != nil {
		return nil, err
	}
	fields.CertificateID = id

	kp, err := i.keys.Generate()
	if err != nil {
		return nil, err
	}

	signature, err := Sign(CanonicalPayload(fields), kp.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	return &Issued{
		Record: &models.Certificate{
			CertificateID:   fields.CertificateID,
			ParticipantName: fields.ParticipantName,
			EventName:       fields.EventName,
			EventDate:       fields.EventDate,
			OrganizerName:   fields.OrganizerName,
			Description:     fields.Description,
			PublicKey:       kp.PublicKeyPEM,
			Signature:       signature,
			CreatedAt:       i.now().UTC().Truncate(time.Millisecond),
		},
		PrivateKeyPEM: kp.PrivateKeyPEM,
	}, nil
}

func (i *Issuer) normalize(req IssueRequest) (Fields, error) {
	f := Fields{
		ParticipantName: strings.TrimSpace(req.ParticipantName),
		EventName:       strings.TrimSpace(req.EventName),
		EventDate:       strings.TrimSpace(req.EventDate),
		OrganizerName:   strings.TrimSpace(req.OrganizerName),
		Description:     strings.TrimSpace(req.Description),
	}
	if f.OrganizerName == "" {
		f.OrganizerName = i.defaultOrganizer
	}

	var missing []string
	if f.ParticipantName == "" {
		missing = append(missing, "participant_name")
	}
	if f.EventName == "" {
		missing = append(missing, "event_name")
	}
	if f.EventDate == "" {
		missing = append(missing, "event_date")
	}
	if f.OrganizerName == "" {
		missing = append(missing, "organizer_name")
	}
	if len(missing) > 0 {
		return Fields{}, fmt.Errorf("%w: missing %s", ErrInvalidFields, strings.Join(missing, ", "))
	}

	return f, nil
}

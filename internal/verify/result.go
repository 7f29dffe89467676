package verify

import "github.com/adamscao/eventcert/internal/models"

// Mode selects how a certificate is located and checked.
type Mode string

const (
	ModeSearch Mode = "search"
	ModeQR     Mode = "qr"
	ModeKey    Mode = "key"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSearch, ModeQR, ModeKey:
		return true
	}
	return false
}

// Reason explains a negative result. It never carries cryptographic detail.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotFound         Reason = "NotFound"
	ReasonInvalidSignature Reason = "InvalidSignature"
	ReasonMalformedInput   Reason = "MalformedInput"
	ReasonAmbiguousKey     Reason = "AmbiguousKey"
)

// Request is the input of a verification. Which fields are read depends on Mode.
type Request struct {
	Mode      Mode
	Query     string // search
	Data      string // qr: raw scanner text
	PublicKey string // key
	Signature string // key
}

// Result is the uniform outcome of all modes.
//
// Found=false implies Valid=false. Found=true with Valid=false only happens
// in key mode when the signature does not verify.
type Result struct {
	Found  bool
	Valid  bool
	Record *models.Certificate
	Reason Reason
}

// Outcome maps the result onto the verification log vocabulary.
func (r *Result) Outcome() string {
	switch r.Reason {
	case ReasonNone:
		return models.OutcomeValid
	case ReasonNotFound:
		return models.OutcomeNotFound
	case ReasonInvalidSignature:
		return models.OutcomeInvalidSignature
	case ReasonMalformedInput:
		return models.OutcomeMalformedInput
	case ReasonAmbiguousKey:
		return models.OutcomeAmbiguousKey
	default:
		return models.OutcomeError
	}
}

func valid(rec *models.Certificate) *Result {
	return &Result{Found: true, Valid: true, Record: rec}
}

func notFound() *Result {
	return &Result{Reason: ReasonNotFound}
}

func malformed() *Result {
	return &Result{Reason: ReasonMalformedInput}
}

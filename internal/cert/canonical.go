package cert

import (
	"bytes"
	"unicode/utf8"

	"github.com/adamscao/eventcert/internal/models"
)

// CanonicalVersion identifies the canonical payload contract. Adding,
// removing or reordering fields requires a new version.
const CanonicalVersion = "v1"

// Fields are the certificate values covered by the signature.
type Fields struct {
	ParticipantName string
	EventName       string
	EventDate       string
	CertificateID   string
	OrganizerName   string
	Description     string
}

// FieldsFromRecord extracts the signed fields from a stored certificate.
func FieldsFromRecord(c *models.Certificate) Fields {
	return Fields{
		ParticipantName: c.ParticipantName,
		EventName:       c.EventName,
		EventDate:       c.EventDate,
		CertificateID:   c.CertificateID,
		OrganizerName:   c.OrganizerName,
		Description:     c.Description,
	}
}

// CanonicalPayload serializes f under contract v1: a compact JSON object with
// the keys participantName, eventName, eventDate, certificateId,
// organizerName, description, always in that order and always present.
// String values are escaped the way ECMAScript JSON.stringify escapes them:
// quote, backslash and C0 controls are escaped (\b \f \n \r \t short forms,
// otherwise lowercase \u00xx); every other rune, U+2028 and U+2029 included,
// is written as raw UTF-8. Invalid UTF-8 bytes become U+FFFD, so two inputs
// differing only in invalid bytes canonicalize identically.
func CanonicalPayload(f Fields) []byte {
	members := [...]struct {
		key   string
		value string
	}{
		{"participantName", f.ParticipantName},
		{"eventName", f.EventName},
		{"eventDate", f.EventDate},
		{"certificateId", f.CertificateID},
		{"organizerName", f.OrganizerName},
		{"description", f.Description},
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, m.key)
		buf.WriteByte(':')
		writeJSONString(&buf, m.value)
	}
	buf.WriteByte('}')

	return buf.Bytes()
}

const hexDigits = "0123456789abcdef"

func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			buf.WriteRune(utf8.RuneError)
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[r>>4])
			buf.WriteByte(hexDigits[r&0xf])
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

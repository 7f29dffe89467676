package cert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/tidwall/gjson"
)

const (
	// DefaultQRSize is the rendered image width and height in pixels.
	DefaultQRSize = 200
	// DefaultQRMargin is the quiet zone width in modules.
	DefaultQRMargin = 2
)

// ErrQRTooLarge is returned when the encoded payload cannot fit the configured image size.
var ErrQRTooLarge = errors.New("qr payload does not fit image size")

// QRPayload is the data embedded in a certificate QR code.
type QRPayload struct {
	CertificateID string `json:"certificateId"`
}

// DecodeKind tells how a scanned QR string was interpreted.
type DecodeKind int

const (
	// DecodedStructured means the input was a JSON object.
	DecodedStructured DecodeKind = iota
	// DecodedRaw means the input was taken verbatim as a certificate id.
	DecodedRaw
)

func (k DecodeKind) String() string {
	switch k {
	case DecodedStructured:
		return "structured"
	case DecodedRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Decoded is the result of DecodeQR.
type Decoded struct {
	Kind    DecodeKind
	Payload QRPayload
}

// QRCodec renders QR payloads as two-colour PNG images.
type QRCodec struct {
	size   int
	margin int
}

// NewQRCodec creates a codec producing size x size images with a quiet zone
// of margin modules. Non-positive sizes fall back to the defaults.
func NewQRCodec(size, margin int) *QRCodec {
	if size <= 0 {
		size = DefaultQRSize
	}
	if margin < 0 {
		margin = DefaultQRMargin
	}
	return &QRCodec{size: size, margin: margin}
}

// Content returns the compact text embedded in the QR code.
func (c *QRCodec) Content(p QRPayload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal qr payload: %w", err)
	}
	return string(data), nil
}

// Encode renders p as a PNG image.
func (c *QRCodec) Encode(p QRPayload) ([]byte, error) {
	content, err := c.Content(p)
	if err != nil {
		return nil, err
	}

	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	modules := code.Bounds().Dx()
	factor := c.size / (modules + 2*c.margin)
	if factor < 1 {
		return nil, fmt.Errorf("%w: %d modules, %d px", ErrQRTooLarge, modules, c.size)
	}

	side := modules * factor
	scaled, err := barcode.Scale(code, side, side)
	if err != nil {
		return nil, fmt.Errorf("failed to scale qr code: %w", err)
	}

	canvas := image.NewPaletted(image.Rect(0, 0, c.size, c.size), color.Palette{color.White, color.Black})
	offset := (c.size - side) / 2
	draw.Draw(canvas, image.Rect(offset, offset, offset+side, offset+side), scaled, scaled.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeQR interprets scanner output. A JSON object is read as a structured
// payload (unknown members are ignored); anything else is taken verbatim as a
// certificate id. DecodeQR never fails.
func DecodeQR(raw string) Decoded {
	trimmed := strings.TrimSpace(raw)
	if gjson.Valid(trimmed) {
		parsed := gjson.Parse(trimmed)
		if parsed.IsObject() {
			var p QRPayload
			if id := parsed.Get("certificateId"); id.Type == gjson.String {
				p.CertificateID = id.String()
			}
			return Decoded{Kind: DecodedStructured, Payload: p}
		}
	}

	return Decoded{Kind: DecodedRaw, Payload: QRPayload{CertificateID: raw}}
}

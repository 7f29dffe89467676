package cert

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"strings"
)

// MinKeyBits is the smallest RSA modulus accepted for issuance (112-bit strength).
const MinKeyBits = 2048

const (
	pemTypePublicKey     = "PUBLIC KEY"
	pemTypePrivateKey    = "PRIVATE KEY"
	pemTypeRSAPrivateKey = "RSA PRIVATE KEY"
)

// KeyPair holds a freshly generated key pair in interchange formats.
type KeyPair struct {
	PublicKeyPEM  string // SPKI
	PrivateKeyPEM string // PKCS#8
}

// KeyGenerator generates RSA key pairs for issuance.
type KeyGenerator struct {
	bits   int
	random io.Reader
}

// NewKeyGenerator creates a generator producing keys of the given size.
// Sizes below MinKeyBits are raised to MinKeyBits.
func NewKeyGenerator(bits int) *KeyGenerator {
	if bits < MinKeyBits {
		bits = MinKeyBits
	}
	return &KeyGenerator{bits: bits, random: rand.Reader}
}

// Bits returns the modulus size.
func (g *KeyGenerator) Bits() int {
	return g.bits
}

// Generate creates a new key pair. Both halves are produced together or not at all.
func (g *KeyGenerator) Generate() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(g.random, g.bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGenerationFailed, err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal private key: %v", ErrKeyGenerationFailed, err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal public key: %v", ErrKeyGenerationFailed, err)
	}

	return &KeyPair{
		PublicKeyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: pubDER})),
		PrivateKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: privDER})),
	}, nil
}

// NormalizePEM converts line endings to \n and guarantees exactly one
// trailing newline, matching the output of pem.EncodeToMemory.
func NormalizePEM(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return s + "\n"
}

// ParsePublicKey parses an SPKI PEM RSA public key.
func ParsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil || block.Type != pemTypePublicKey {
		return nil, fmt.Errorf("%w: no PUBLIC KEY block", ErrInvalidPublicKey)
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPublicKey)
	}
	return rsaPub, nil
}

// ParsePrivateKey parses a PKCS#8 PEM RSA private key. PKCS#1 keys are also accepted.
func ParsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidPrivateKey)
	}

	switch block.Type {
	case pemTypePrivateKey:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPrivateKey)
		}
		return rsaKey, nil

	case pemTypeRSAPrivateKey:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidPrivateKey, block.Type)
	}
}

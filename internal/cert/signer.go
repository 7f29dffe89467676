package cert

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Sign signs the SHA-256 digest of payload with RSASSA-PKCS1-v1_5 and returns
// the signature base64 encoded (standard alphabet, padded).
func Sign(payload []byte, privateKeyPEM string) (string, error) {
	key, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether signature is a valid signature of payload under
// publicKeyPEM. Malformed keys, malformed base64 and algorithm mismatches all
// yield false; the cause is deliberately not reported.
func Verify(payload []byte, signature, publicKeyPEM string) bool {
	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(sig) == 0 {
		return false
	}

	digest := sha256.Sum256(payload)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil
}

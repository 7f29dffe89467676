package cert

import "errors"

var (
	// ErrEntropyUnavailable is returned when the random source cannot be read.
	ErrEntropyUnavailable = errors.New("entropy source unavailable")

	// ErrKeyGenerationFailed is returned when the RSA primitive fails to produce a key.
	ErrKeyGenerationFailed = errors.New("key generation failed")

	// ErrSigningFailed is returned when a payload cannot be signed.
	ErrSigningFailed = errors.New("signing failed")

	// ErrInvalidPrivateKey is returned when a private key PEM cannot be parsed.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInvalidPublicKey is returned when a public key PEM cannot be parsed.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidFields is returned when an issue request is missing required fields.
	ErrInvalidFields = errors.New("invalid certificate fields")
)

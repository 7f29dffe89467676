package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpIssuer = "EventCert"
)

// TOTPKey is a freshly generated second-factor secret
type TOTPKey struct {
	Secret string
	URL    string // otpauth:// URL for authenticator apps
}

// GenerateTOTPSecret generates a new TOTP secret for account
func GenerateTOTPSecret(account string) (*TOTPKey, error) {
	if account == "" {
		account = "admin"
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return &TOTPKey{Secret: key.Secret(), URL: key.URL()}, nil
}

// ValidateTOTP validates a TOTP code against a secret.
// Allows for ±1 time window to account for clock skew.
func ValidateTOTP(secret, code string) (bool, error) {
	return validateTOTPAt(secret, code, time.Now())
}

func validateTOTPAt(secret, code string, at time.Time) (bool, error) {
	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil && !errors.Is(err, otp.ErrValidateInputInvalidLength) {
		return false, fmt.Errorf("failed to validate TOTP code: %w", err)
	}
	return valid, nil
}

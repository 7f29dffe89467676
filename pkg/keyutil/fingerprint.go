// Package keyutil derives short, human-comparable identities for certificate public keys.
package keyutil

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrNoPEMBlock is returned when the input holds no PEM block.
var ErrNoPEMBlock = errors.New("no PEM block found")

func parse(publicKeyPEM string) (ssh.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(publicKeyPEM)))
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	sshKey, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to convert public key: %w", err)
	}
	return sshKey, nil
}

// Fingerprint calculates the SHA256 fingerprint of a PEM (SPKI) public key
// in the OpenSSH format, e.g. "SHA256:Emf2d/SM...".
func Fingerprint(publicKeyPEM string) (string, error) {
	key, err := parse(publicKeyPEM)
	if err != nil {
		return "", err
	}
	return ssh.FingerprintSHA256(key), nil
}

// AuthorizedKey renders the key as a single "ssh-rsa AAAA..." line.
func AuthorizedKey(publicKeyPEM string) (string, error) {
	key, err := parse(publicKeyPEM)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key))), nil
}

// FingerprintMatches checks if two public keys have the same fingerprint
func FingerprintMatches(pubkey1, pubkey2 string) (bool, error) {
	fp1, err := Fingerprint(pubkey1)
	if err != nil {
		return false, err
	}

	fp2, err := Fingerprint(pubkey2)
	if err != nil {
		return false, err
	}

	return fp1 == fp2, nil
}

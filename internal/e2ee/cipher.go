package e2ee

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrMessageTooLong = errors.New("message is too long to encrypt")
	ErrDecrypt        = errors.New("unable to decrypt message")
)

// MaxPlaintext is the OAEP-SHA256 payload limit for pub: k - 2*hLen - 2.
func MaxPlaintext(pub *rsa.PublicKey) int {
	return pub.Size() - 2*sha256.Size - 2
}

// Encrypt seals plaintext for the holder of recipientPublicKey and returns base64 ciphertext.
func Encrypt(plaintext, recipientPublicKey string) (string, error) {
	pub, err := ParsePublicKey(recipientPublicKey)
	if err != nil {
		return "", err
	}
	if len(plaintext) > MaxPlaintext(pub) {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLong, len(plaintext), MaxPlaintext(pub))
	}
	out, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptWith opens a base64 ciphertext. Wrong keys and corrupted input
// both return ErrDecrypt.
func DecryptWith(key *rsa.PrivateKey, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	out, err := rsa.DecryptOAEP(sha256.New(), nil, key, raw, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	if !utf8.Valid(out) {
		return "", ErrDecrypt
	}
	return string(out), nil
}

// Decrypt uses the device private key from the manager's store.
func (m *KeyManager) Decrypt(ciphertext string) (string, error) {
	key, err := m.PrivateKey()
	if err != nil {
		return "", err
	}
	return DecryptWith(key, ciphertext)
}

// IsCiphertext reports whether content could be a ciphertext for a key of keyBytes size.
func IsCiphertext(content string, keyBytes int) bool {
	raw, err := base64.StdEncoding.DecodeString(content)
	return err == nil && len(raw) == keyBytes
}

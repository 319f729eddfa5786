// Package e2ee implements the device side of chat encryption: an RSA-OAEP
// (SHA-256) key pair per device, with the public half published to the profile.
package e2ee

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const KeyBits = 2048

var (
	ErrPrivateKeyNotFound = errors.New("private key not found")
	ErrPublishPublicKey   = errors.New("failed to publish public key")
	ErrInvalidPublicKey   = errors.New("invalid public key")
	ErrInvalidPrivateKey  = errors.New("invalid private key")
)

// PublicKeyPublisher makes a public key discoverable by peers.
type PublicKeyPublisher interface {
	PublishPublicKey(ctx context.Context, userID uuid.UUID, publicKey string) error
}

type KeyManager struct {
	store     KeyStore
	publisher PublicKeyPublisher
}

func NewKeyManager(store KeyStore, publisher PublicKeyPublisher) *KeyManager {
	return &KeyManager{store: store, publisher: publisher}
}

// EnsureKeys returns the device public key, generating and publishing a pair
// only when no private key is stored. On publish failure the pair is kept and
// ErrPublishPublicKey is returned with the public key.
func (m *KeyManager) EnsureKeys(ctx context.Context, userID uuid.UUID) (string, error) {
	priv, pub, err := m.store.Load()
	if err != nil {
		return "", fmt.Errorf("load keys: %w", err)
	}

	if priv != "" {
		if pub != "" {
			return pub, nil
		}
		key, err := ParsePrivateKey(priv)
		if err != nil {
			return "", err
		}
		pub, err = EncodePublicKey(&key.PublicKey)
		if err != nil {
			return "", err
		}
		if err := m.store.Save(priv, pub); err != nil {
			return "", fmt.Errorf("save keys: %w", err)
		}
		return pub, nil
	}

	key, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return "", fmt.Errorf("generate key pair: %w", err)
	}
	priv, err = EncodePrivateKey(key)
	if err != nil {
		return "", err
	}
	pub, err = EncodePublicKey(&key.PublicKey)
	if err != nil {
		return "", err
	}
	if err := m.store.Save(priv, pub); err != nil {
		return "", fmt.Errorf("save keys: %w", err)
	}

	if m.publisher != nil {
		if err := m.publisher.PublishPublicKey(ctx, userID, pub); err != nil {
			return pub, fmt.Errorf("%w: %v", ErrPublishPublicKey, err)
		}
	}
	return pub, nil
}

// PrivateKey loads the stored private key.
func (m *KeyManager) PrivateKey() (*rsa.PrivateKey, error) {
	priv, _, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}
	if priv == "" {
		return nil, ErrPrivateKeyNotFound
	}
	return ParsePrivateKey(priv)
}

// EncodePublicKey is base64 of the SPKI DER encoding.
func EncodePublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// EncodePrivateKey is base64 of the PKCS#8 DER encoding.
func EncodePrivateKey(key *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("marshal private key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

func ParsePublicKey(b64 string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPublicKey)
	}
	return pub, nil
}

// ValidatePublicKey accepts RSA SPKI keys of at least KeyBits.
func ValidatePublicKey(b64 string) error {
	pub, err := ParsePublicKey(b64)
	if err != nil {
		return err
	}
	if pub.N.BitLen() < KeyBits {
		return fmt.Errorf("%w: key is %d bits, need %d", ErrInvalidPublicKey, pub.N.BitLen(), KeyBits)
	}
	return nil
}

func ParsePrivateKey(b64 string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPrivateKey)
	}
	return priv, nil
}

package e2ee

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	privateKeyFile = "pys_chat_private_key"
	publicKeyFile  = "pys_chat_public_key"
)

// KeyStore persists the device key pair as base64 strings. Load returns ""
// for halves that are not stored.
type KeyStore interface {
	Load() (privateKey, publicKey string, err error)
	Save(privateKey, publicKey string) error
}

type FileKeyStore struct {
	Dir string
}

func NewFileKeyStore(dir string) *FileKeyStore {
	return &FileKeyStore{Dir: dir}
}

func (s *FileKeyStore) Load() (string, string, error) {
	priv, err := s.read(privateKeyFile)
	if err != nil {
		return "", "", err
	}
	pub, err := s.read(publicKeyFile)
	if err != nil {
		return "", "", err
	}
	return priv, pub, nil
}

func (s *FileKeyStore) read(name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *FileKeyStore) Save(privateKey, publicKey string) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, privateKeyFile), []byte(privateKey), 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, publicKeyFile), []byte(publicKey), 0o600); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}

type MemoryKeyStore struct {
	mu         sync.Mutex
	privateKey string
	publicKey  string
	Saves      int
}

func (s *MemoryKeyStore) Load() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privateKey, s.publicKey, nil
}

func (s *MemoryKeyStore) Save(privateKey, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateKey, s.publicKey = privateKey, publicKey
	s.Saves++
	return nil
}

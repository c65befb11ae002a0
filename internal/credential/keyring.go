// Package credential keeps the backend bearer token in the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "fleetbell"

// BackendTokenKey names the backend bearer token in the keyring.
const BackendTokenKey = "backend-token"

// BackendTokenEnv overrides the keyring token when set.
const BackendTokenEnv = "FLEETBELL_BACKEND_TOKEN"

// Store reads and writes credentials in a keyring.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open opens the system keyring, falling back to an encrypted file under
// ~/.config/fleetbell/credentials.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/fleetbell/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("fleetbell-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "fleetbell " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key.
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// BackendToken returns the backend bearer token. The environment wins over
// the keyring; a missing token is not an error and yields "".
func (s *Store) BackendToken() (string, error) {
	if token := os.Getenv(BackendTokenEnv); token != "" {
		return token, nil
	}

	token, err := s.Get(BackendTokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return token, err
}

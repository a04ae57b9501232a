// Package memstore implements an in-memory rotation.SecretStore for tests
// and local development, using a mutex-guarded map with per-key
// last-writer-wins semantics.
package memstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/opsloom/credrotate/pkg/rotation"
)

type entry struct {
	value string
	info  rotation.SecretInfo
}

// Store is a concurrent, in-memory rotation.SecretStore. The zero value is
// not usable; construct with New.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   rotation.Clock
	id      string
}

// New constructs an empty Store. clock supplies CreatedOn/UpdatedOn
// timestamps, matching the same time source used for expiration
// arithmetic elsewhere in a run.
func New(clock rotation.Clock) *Store {
	return &Store{
		entries: make(map[string]entry),
		clock:   clock,
		id:      "memstore",
	}
}

// GetSecret returns metadata for name, or rotation.ErrSecretNotFound if no
// secret has been written under that name yet.
func (s *Store) GetSecret(ctx context.Context, name string) (rotation.SecretInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return rotation.SecretInfo{}, rotation.ErrSecretNotFound{Name: name}
	}
	return e.info, nil
}

// GetSecretValue returns the plaintext value stored under name, or
// rotation.ErrSecretNotFound if absent.
func (s *Store) GetSecretValue(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return "", rotation.ErrSecretNotFound{Name: name}
	}
	return e.value, nil
}

// UpdateSecret creates or overwrites the secret under name, always
// visible to a GetSecret in the same process that happens-after this call
// returns.
func (s *Store) UpdateSecret(ctx context.Context, name, value, contentType string, expiresOn time.Time) (rotation.SecretInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	existing, existed := s.entries[name]

	createdOn := now
	if existed {
		createdOn = existing.info.CreatedOn
	}

	version, err := randomVersion()
	if err != nil {
		return rotation.SecretInfo{}, err
	}

	expires := expiresOn
	info := rotation.SecretInfo{
		Id:          name,
		Name:        name,
		ContentType: contentType,
		Enabled:     true,
		CreatedOn:   createdOn,
		ExpiresOn:   &expires,
		UpdatedOn:   now,
		StoreId:     s.id,
		Version:     version,
	}

	s.entries[name] = entry{value: value, info: info}
	return info, nil
}

func randomVersion() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

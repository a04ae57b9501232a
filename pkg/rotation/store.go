package rotation

import (
	"context"
	"time"
)

// SecretStore abstracts the durable store a rotated credential is written
// to and read from. Implementations must separate metadata reads from
// value-bearing reads: GetSecret never returns the secret's plaintext, so
// eligibility checks can run without ever touching sensitive material.
type SecretStore interface {
	// GetSecret returns metadata for the named secret. It returns
	// ErrSecretNotFound if the store has no secret by that name yet, which
	// is the normal, expected state before a resource's first Initialize.
	GetSecret(ctx context.Context, name string) (SecretInfo, error)

	// GetSecretValue returns the current plaintext value of the named
	// secret. Callers must not log the returned string directly.
	GetSecretValue(ctx context.Context, name string) (string, error)

	// UpdateSecret writes a new version of the named secret, setting its
	// expiration to expiresOn and its content type label to contentType.
	// UpdateSecret creates the secret if it does not already exist.
	UpdateSecret(ctx context.Context, name, value, contentType string, expiresOn time.Time) (SecretInfo, error)
}

// ErrSecretNotFound is returned by SecretStore.GetSecret and
// GetSecretValue when no secret exists under the given name.
type ErrSecretNotFound struct {
	Name string
}

func (e ErrSecretNotFound) Error() string {
	return "secret not found: " + e.Name
}

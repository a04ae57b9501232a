// Package keyvault implements rotation.SecretStore against Azure Key
// Vault, following the same credential chain and client-construction
// pattern used across the rest of this codebase's Azure integrations.
package keyvault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/opsloom/credrotate/internal/logging"
	"github.com/opsloom/credrotate/pkg/rotation"
)

// ClientAPI is the subset of azsecrets.Client this package depends on. It
// exists so tests can inject a fake without a live vault.
type ClientAPI interface {
	GetSecret(ctx context.Context, name, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
	SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error)
}

// Store is a rotation.SecretStore backed by one Azure Key Vault.
type Store struct {
	client   ClientAPI
	vaultURL string
	logger   *logging.Logger
}

// Config selects the vault and the authentication method used to reach it.
type Config struct {
	VaultURL           string
	TenantID           string
	ClientID           string
	ClientSecret       string
	UseManagedIdentity bool
	UserAssignedID     string
}

// New constructs a Store, authenticating with the credential chain
// implied by cfg: user-assigned or system-assigned managed identity when
// UseManagedIdentity is set, a client secret (with TenantID and ClientID)
// when ClientSecret is set, and the Azure CLI / default credential chain
// otherwise.
func New(cfg Config, logger *logging.Logger) (*Store, error) {
	if cfg.VaultURL == "" {
		return nil, errors.New("keyvault: VaultURL is required")
	}

	cred, err := resolveCredential(cfg)
	if err != nil {
		return nil, fmt.Errorf("keyvault: failed to create credential: %w", err)
	}

	client, err := azsecrets.NewClient(cfg.VaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("keyvault: failed to create client: %w", err)
	}

	return &Store{client: client, vaultURL: cfg.VaultURL, logger: logger}, nil
}

// NewWithClient constructs a Store around an already-built client, for
// tests.
func NewWithClient(client ClientAPI, vaultURL string, logger *logging.Logger) *Store {
	return &Store{client: client, vaultURL: vaultURL, logger: logger}
}

func resolveCredential(cfg Config) (azcore.TokenCredential, error) {
	switch {
	case cfg.UseManagedIdentity && cfg.UserAssignedID != "":
		return azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ID: azidentity.ClientID(cfg.UserAssignedID),
		})
	case cfg.UseManagedIdentity:
		return azidentity.NewManagedIdentityCredential(nil)
	case cfg.ClientSecret != "":
		return azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	default:
		return azidentity.NewDefaultAzureCredential(nil)
	}
}

// GetSecret returns metadata for name via a fetch-and-discard-value call,
// since azsecrets has no metadata-only read.
func (s *Store) GetSecret(ctx context.Context, name string) (rotation.SecretInfo, error) {
	resp, err := s.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		if isNotFound(err) {
			return rotation.SecretInfo{}, rotation.ErrSecretNotFound{Name: name}
		}
		return rotation.SecretInfo{}, fmt.Errorf("keyvault: failed to get secret %q: %w", name, err)
	}

	return s.toSecretInfo(name, resp), nil
}

// GetSecretValue returns the plaintext value of the named secret.
func (s *Store) GetSecretValue(ctx context.Context, name string) (string, error) {
	resp, err := s.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		if isNotFound(err) {
			return "", rotation.ErrSecretNotFound{Name: name}
		}
		return "", fmt.Errorf("keyvault: failed to get secret value %q: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("keyvault: secret %q has no value", name)
	}
	return *resp.Value, nil
}

// UpdateSecret creates a new version of the named secret.
func (s *Store) UpdateSecret(ctx context.Context, name, value, contentType string, expiresOn time.Time) (rotation.SecretInfo, error) {
	params := azsecrets.SetSecretParameters{
		Value:       to.Ptr(value),
		ContentType: to.Ptr(contentType),
		SecretAttributes: &azsecrets.SecretAttributes{
			Expires: to.Ptr(expiresOn.UTC()),
		},
	}

	resp, err := s.client.SetSecret(ctx, name, params, nil)
	if err != nil {
		return rotation.SecretInfo{}, fmt.Errorf("keyvault: failed to set secret %q: %w", name, err)
	}

	s.logger.Debug("wrote key vault secret %s", logging.Secret(name))

	return s.toSecretInfoFromSetResponse(name, resp), nil
}

func (s *Store) toSecretInfo(name string, resp azsecrets.GetSecretResponse) rotation.SecretInfo {
	info := rotation.SecretInfo{
		Id:          name,
		Name:        name,
		Enabled:     true,
		StoreId:     s.vaultURL,
	}
	if resp.ContentType != nil {
		info.ContentType = *resp.ContentType
	}
	if resp.ID != nil {
		info.Version = resp.ID.Version()
	}
	if resp.Attributes != nil {
		if resp.Attributes.Enabled != nil {
			info.Enabled = *resp.Attributes.Enabled
		}
		if resp.Attributes.Created != nil {
			info.CreatedOn = *resp.Attributes.Created
		}
		if resp.Attributes.Updated != nil {
			info.UpdatedOn = *resp.Attributes.Updated
		}
		if resp.Attributes.Expires != nil {
			expires := *resp.Attributes.Expires
			info.ExpiresOn = &expires
		}
	}
	return info
}

func (s *Store) toSecretInfoFromSetResponse(name string, resp azsecrets.SetSecretResponse) rotation.SecretInfo {
	info := rotation.SecretInfo{
		Id:      name,
		Name:    name,
		Enabled: true,
		StoreId: s.vaultURL,
	}
	if resp.ContentType != nil {
		info.ContentType = *resp.ContentType
	}
	if resp.ID != nil {
		info.Version = resp.ID.Version()
	}
	if resp.Attributes != nil {
		if resp.Attributes.Enabled != nil {
			info.Enabled = *resp.Attributes.Enabled
		}
		if resp.Attributes.Created != nil {
			info.CreatedOn = *resp.Attributes.Created
		}
		if resp.Attributes.Updated != nil {
			info.UpdatedOn = *resp.Attributes.Updated
		}
		if resp.Attributes.Expires != nil {
			expires := *resp.Attributes.Expires
			info.ExpiresOn = &expires
		}
	}
	return info
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == 404
	}
	return false
}

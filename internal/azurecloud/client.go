// Package azurecloud implements rotation.CloudClient against the Azure
// Resource Manager REST API. No Azure resource-manager SDK module for
// PostgreSQL flexible servers or storage accounts is vendored alongside
// this codebase's other Azure integrations, so this package authenticates
// with azidentity, the same way the rest of the Azure integrations do, and
// issues the management-plane REST calls directly.
package azurecloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/opsloom/credrotate/internal/logging"
	"github.com/opsloom/credrotate/pkg/rotation"
)

const (
	managementScope   = "https://management.azure.com/.default"
	managementBaseURL = "https://management.azure.com"

	postgresAPIVersion = "2023-06-01-preview"
	storageAPIVersion  = "2023-01-01"
)

// Config selects the authentication method used to reach Azure Resource
// Manager, following the same option set as the rest of this codebase's
// Azure integrations.
type Config struct {
	TenantID           string
	ClientID           string
	ClientSecret       string
	UseManagedIdentity bool
	UserAssignedID     string
}

// Client implements rotation.CloudClient by issuing authenticated REST
// calls against the Azure Resource Manager control plane.
type Client struct {
	credential azcore.TokenCredential
	httpClient *http.Client
	logger     *logging.Logger
}

// New constructs a Client, resolving cfg to a token credential the same
// way keyvault.New does.
func New(cfg Config, logger *logging.Logger) (*Client, error) {
	cred, err := resolveCredential(cfg)
	if err != nil {
		return nil, fmt.Errorf("azurecloud: failed to create credential: %w", err)
	}

	return &Client{
		credential: cred,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
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

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	token, err := c.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{managementScope}})
	if err != nil {
		return "", fmt.Errorf("azurecloud: failed to get management token: %w", err)
	}
	return token.Token, nil
}

// doJSON issues an authenticated REST call and decodes a JSON response
// body into out (when out is non-nil and the call succeeded).
func (c *Client) doJSON(ctx context.Context, method, url string, body, out interface{}) (*http.Response, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("azurecloud: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("azurecloud: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azurecloud: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, fmt.Errorf("azurecloud: failed to read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		return resp, fmt.Errorf("azurecloud: request to %s returned %s: %s", url, resp.Status, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp, fmt.Errorf("azurecloud: failed to decode response body: %w", err)
		}
	}

	return resp, nil
}

// serverProperties mirrors the subset of a PostgreSQL flexible server ARM
// resource this package reads.
type serverProperties struct {
	FullyQualifiedDomainName string `json:"fullyQualifiedDomainName"`
	AdministratorLogin       string `json:"administratorLogin"`
}

type serverResource struct {
	Properties serverProperties `json:"properties"`
}

// GetDatabaseServerDetails reads a PostgreSQL flexible server resource and
// returns its hostname and administrator login.
func (c *Client) GetDatabaseServerDetails(ctx context.Context, targetResourceId string) (rotation.DatabaseServerDetails, error) {
	url := fmt.Sprintf("%s%s?api-version=%s", managementBaseURL, targetResourceId, postgresAPIVersion)

	var resource serverResource
	if _, err := c.doJSON(ctx, http.MethodGet, url, nil, &resource); err != nil {
		return rotation.DatabaseServerDetails{}, err
	}

	return rotation.DatabaseServerDetails{
		Hostname:             resource.Properties.FullyQualifiedDomainName,
		AdministratorLogin:   resource.Properties.AdministratorLogin,
		FullyQualifiedDomain: resource.Properties.FullyQualifiedDomainName,
	}, nil
}

type serverPasswordUpdate struct {
	Properties serverPasswordUpdateProperties `json:"properties"`
}

type serverPasswordUpdateProperties struct {
	AdministratorLoginPassword string `json:"administratorLoginPassword"`
}

// UpdateDatabaseAdministratorPassword patches the server resource with a
// new administrator password. Replaying with the same password is
// idempotent because it is a plain property PATCH.
func (c *Client) UpdateDatabaseAdministratorPassword(ctx context.Context, targetResourceId, newPassword string) error {
	url := fmt.Sprintf("%s%s?api-version=%s", managementBaseURL, targetResourceId, postgresAPIVersion)

	body := serverPasswordUpdate{
		Properties: serverPasswordUpdateProperties{AdministratorLoginPassword: newPassword},
	}

	_, err := c.doJSON(ctx, http.MethodPatch, url, body, nil)
	return err
}

type storageKeyListResponse struct {
	Keys []storageKeyEntry `json:"keys"`
}

type storageKeyEntry struct {
	KeyName string `json:"keyName"`
	Value   string `json:"value"`
}

// GetTwoStorageAccountKeys lists the storage account's keys and returns
// exactly the pair named "key1" and "key2", in that order.
func (c *Client) GetTwoStorageAccountKeys(ctx context.Context, targetResourceId string) ([2]rotation.StorageAccountKey, error) {
	url := fmt.Sprintf("%s%s/listKeys?api-version=%s", managementBaseURL, targetResourceId, storageAPIVersion)

	var listResp storageKeyListResponse
	if _, err := c.doJSON(ctx, http.MethodPost, url, nil, &listResp); err != nil {
		return [2]rotation.StorageAccountKey{}, err
	}

	var result [2]rotation.StorageAccountKey
	found := map[string]rotation.StorageAccountKey{}
	for _, k := range listResp.Keys {
		found[k.KeyName] = rotation.StorageAccountKey{Name: k.KeyName, Value: k.Value}
	}

	key1, ok1 := found["key1"]
	key2, ok2 := found["key2"]
	if !ok1 || !ok2 {
		return [2]rotation.StorageAccountKey{}, fmt.Errorf("azurecloud: storage account does not have both key1 and key2")
	}
	result[0], result[1] = key1, key2
	return result, nil
}

type regenerateKeyRequest struct {
	KeyName string `json:"keyName"`
}

// RegenerateStorageAccountKey triggers server-side regeneration of the
// named key and returns its new value.
func (c *Client) RegenerateStorageAccountKey(ctx context.Context, targetResourceId, keyName string) (rotation.StorageAccountKey, error) {
	url := fmt.Sprintf("%s%s/regenerateKey?api-version=%s", managementBaseURL, targetResourceId, storageAPIVersion)

	var listResp storageKeyListResponse
	if _, err := c.doJSON(ctx, http.MethodPost, url, regenerateKeyRequest{KeyName: keyName}, &listResp); err != nil {
		return rotation.StorageAccountKey{}, err
	}

	for _, k := range listResp.Keys {
		if k.KeyName == keyName {
			return rotation.StorageAccountKey{Name: k.KeyName, Value: k.Value}, nil
		}
	}

	return rotation.StorageAccountKey{}, fmt.Errorf("azurecloud: regenerate response did not include key %q", keyName)
}

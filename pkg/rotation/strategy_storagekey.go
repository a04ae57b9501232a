package rotation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opsloom/credrotate/internal/logging"
)

const storageAccountKeyStrategyType = "azure/storage/account/key"

const (
	storageKeyName1 = "key1"
	storageKeyName2 = "key2"
)

// StorageAccountKeyStrategy rotates one of a storage account's two named
// access keys, alternating which key is "hot" on each successive rotation
// so the key currently in use by consumers stays valid while the other one
// is regenerated.
type StorageAccountKeyStrategy struct {
	cloud  CloudClient
	logger *logging.Logger
}

// NewStorageAccountKeyStrategy constructs a StorageAccountKeyStrategy.
func NewStorageAccountKeyStrategy(cloud CloudClient, logger *logging.Logger) *StorageAccountKeyStrategy {
	return &StorageAccountKeyStrategy{cloud: cloud, logger: logger}
}

func (s *StorageAccountKeyStrategy) StrategyType() string { return storageAccountKeyStrategyType }

func (s *StorageAccountKeyStrategy) Initialize(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error) {
	return runInitialization(ctx, resource, opCtx, storageAccountKeyStrategyType, s.performInitialize)
}

func (s *StorageAccountKeyStrategy) Rotate(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error) {
	return runRotation(ctx, resource, opCtx, storageAccountKeyStrategyType, s.performRotate)
}

// performInitialize always rotates key1; there is no prior stored value to
// read to determine which key is currently hot.
func (s *StorageAccountKeyStrategy) performInitialize(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, store SecretStore) (RotationResult, error) {
	return s.rotateKey(ctx, resource, opCtx, store, storageKeyName1)
}

// performRotate reads the currently stored key name and regenerates the
// opposite one.
func (s *StorageAccountKeyStrategy) performRotate(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, store SecretStore) (RotationResult, error) {
	currentValue, err := store.GetSecretValue(ctx, resource.Name)
	if err != nil {
		return failureResult(resource.Name, fmt.Sprintf("failed to read current storage key value: %v", err)), nil
	}

	var current StorageAccountKeyCredential
	if err := json.Unmarshal([]byte(currentValue), &current); err != nil {
		return failureResult(resource.Name, "stored storage key value is not valid JSON"), nil
	}

	var target string
	switch current.Name {
	case storageKeyName1:
		target = storageKeyName2
	case storageKeyName2:
		target = storageKeyName1
	default:
		return failureResult(resource.Name, fmt.Sprintf("stored storage key name %q is neither %q nor %q", current.Name, storageKeyName1, storageKeyName2)), nil
	}

	return s.rotateKey(ctx, resource, opCtx, store, target)
}

func (s *StorageAccountKeyStrategy) rotateKey(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, store SecretStore, keyName string) (RotationResult, error) {
	if resource.TargetResourceId == "" {
		return failureResult(resource.Name, "missing TargetResourceId"), nil
	}

	keys, err := s.cloud.GetTwoStorageAccountKeys(ctx, resource.TargetResourceId)
	if err != nil {
		s.logger.Error("failed to list storage account keys for %s: %v", resource.Name, err)
		return externalFailureResult(resource.Name, resource.TargetResourceId, "list storage account keys", err), nil
	}
	if !hasBothKeys(keys, storageKeyName1, storageKeyName2) {
		return failureResult(resource.Name, "storage account does not have exactly key1 and key2"), nil
	}

	if opCtx.IsWhatIf {
		return whatIfResult(resource.Name, fmt.Sprintf("regenerated %s", keyName)), nil
	}

	newKey, err := s.cloud.RegenerateStorageAccountKey(ctx, resource.TargetResourceId, keyName)
	if err != nil {
		s.logger.Error("failed to regenerate storage account key %s for %s: %v", keyName, resource.Name, err)
		return externalFailureResult(resource.Name, resource.TargetResourceId, fmt.Sprintf("regenerate %s", keyName), err), nil
	}
	if newKey.Name != keyName {
		return failureResult(resource.Name, fmt.Sprintf("regenerate returned key %q, expected %q", newKey.Name, keyName)), nil
	}

	credential := StorageAccountKeyCredential{Name: newKey.Name, Value: newKey.Value}
	payload, err := json.Marshal(credential)
	if err != nil {
		return RotationResult{}, fmt.Errorf("failed to serialize storage key credential: %w", err)
	}

	now := opCtx.Clock.Now()
	expiresOn := now.Add(daysToDuration(resource.expirationDaysOrDefault()))

	// The storage account key has already been regenerated at this point; a
	// cancellation delivered from here on must not stop the store write,
	// since losing the written credential is worse than ignoring
	// cancellation.
	if _, err := store.UpdateSecret(context.WithoutCancel(ctx), resource.Name, string(payload), "application/json", expiresOn); err != nil {
		s.logger.Error("secret store update failed after storage key regeneration for %s: %v", resource.Name, err)
		return recoveryRequiredResult(resource.Name, err), nil
	}

	s.logger.Info("rotated storage account key %s for %s", keyName, resource.Name)
	return successResult(resource.Name, fmt.Sprintf("rotated %s", keyName)), nil
}

func hasBothKeys(keys [2]StorageAccountKey, name1, name2 string) bool {
	seen := map[string]bool{keys[0].Name: true, keys[1].Name: true}
	return seen[name1] && seen[name2]
}

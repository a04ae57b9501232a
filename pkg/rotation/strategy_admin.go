package rotation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opsloom/credrotate/internal/logging"
)

const administratorStrategyType = "azure/postgresql/flexible-server/administrator"

const administratorPasswordLength = 16

// AdministratorStrategy rotates a cloud database server's administrator
// password. It provides no overlap window: the old password stops working
// the instant the new one is patched onto the server.
type AdministratorStrategy struct {
	cloud  CloudClient
	logger *logging.Logger
}

// NewAdministratorStrategy constructs an AdministratorStrategy.
func NewAdministratorStrategy(cloud CloudClient, logger *logging.Logger) *AdministratorStrategy {
	return &AdministratorStrategy{cloud: cloud, logger: logger}
}

func (s *AdministratorStrategy) StrategyType() string { return administratorStrategyType }

func (s *AdministratorStrategy) Initialize(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error) {
	return runInitialization(ctx, resource, opCtx, administratorStrategyType, s.perform)
}

func (s *AdministratorStrategy) Rotate(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error) {
	return runRotation(ctx, resource, opCtx, administratorStrategyType, s.perform)
}

func (s *AdministratorStrategy) perform(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, store SecretStore) (RotationResult, error) {
	if resource.TargetResourceId == "" {
		return failureResult(resource.Name, "missing TargetResourceId"), nil
	}

	details, err := s.cloud.GetDatabaseServerDetails(ctx, resource.TargetResourceId)
	if err != nil {
		s.logger.Error("failed to read database server details for %s: %v", resource.Name, err)
		return externalFailureResult(resource.Name, resource.TargetResourceId, "get database server details", err), nil
	}

	password, err := Generate(administratorPasswordLength)
	if err != nil {
		return RotationResult{}, err
	}

	if opCtx.IsWhatIf {
		return whatIfResult(resource.Name, "patched the administrator password"), nil
	}

	if err := s.cloud.UpdateDatabaseAdministratorPassword(ctx, resource.TargetResourceId, password); err != nil {
		s.logger.Error("failed to patch administrator password for %s: %v", resource.Name, err)
		return externalFailureResult(resource.Name, resource.TargetResourceId, "update administrator password", err), nil
	}

	credential := DatabaseCredential{
		Hostname: details.Hostname,
		Username: details.AdministratorLogin,
		Password: password,
	}
	payload, err := json.Marshal(credential)
	if err != nil {
		return RotationResult{}, fmt.Errorf("failed to serialize administrator credential: %w", err)
	}

	now := opCtx.Clock.Now()
	expiresOn := now.Add(daysToDuration(resource.expirationDaysOrDefault()))

	// The administrator password has already been patched on the server at
	// this point; a cancellation delivered from here on must not stop the
	// store write, since losing the written credential is worse than
	// ignoring cancellation.
	if _, err := store.UpdateSecret(context.WithoutCancel(ctx), resource.Name, string(payload), "application/json", expiresOn); err != nil {
		s.logger.Error("secret store update failed after administrator password rotation for %s: %v", resource.Name, err)
		return recoveryRequiredResult(resource.Name, err), nil
	}

	s.logger.Info("rotated administrator password for %s", resource.Name)
	return successResult(resource.Name, "rotated administrator password"), nil
}

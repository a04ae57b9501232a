package rotation

import (
	"context"
	"time"

	"github.com/opsloom/credrotate/internal/logging"
)

const manualStrategyType = "manual/generic"

// ManualStrategy writes an operator-supplied value verbatim. It performs no
// external I/O and provides no overlap window: initialization and rotation
// are the same operation.
type ManualStrategy struct {
	logger *logging.Logger
}

// NewManualStrategy constructs a ManualStrategy.
func NewManualStrategy(logger *logging.Logger) *ManualStrategy {
	return &ManualStrategy{logger: logger}
}

func (s *ManualStrategy) StrategyType() string { return manualStrategyType }

func (s *ManualStrategy) Initialize(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error) {
	return runInitialization(ctx, resource, opCtx, manualStrategyType, s.perform)
}

func (s *ManualStrategy) Rotate(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error) {
	return runRotation(ctx, resource, opCtx, manualStrategyType, s.perform)
}

func (s *ManualStrategy) perform(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, store SecretStore) (RotationResult, error) {
	if opCtx.IsWhatIf {
		return whatIfResult(resource.Name, "written the supplied value"), nil
	}

	now := opCtx.Clock.Now()
	expiresOn := now.Add(daysToDuration(resource.expirationDaysOrDefault()))

	if _, err := store.UpdateSecret(ctx, resource.Name, opCtx.SecretValue1, resource.ContentType, expiresOn); err != nil {
		s.logger.Error("failed to write manual secret %s: %v", logging.Secret(resource.Name), err)
		return failureResult(resource.Name, "failed to write secret value: "+err.Error()), nil
	}

	s.logger.Info("wrote manual secret %s", logging.Secret(resource.Name))
	return successResult(resource.Name, "wrote supplied value"), nil
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}

package rotation

import (
	"context"
	"fmt"

	"github.com/opsloom/credrotate/internal/metrics"
	"github.com/opsloom/credrotate/internal/rotationerrors"
)

// Strategy is the capability set every concrete rotator implements. It is
// deliberately small: shared eligibility/what-if/verdict-assembly logic
// lives in the free functions in this file and in eligibility.go, not in an
// embedded base type.
type Strategy interface {
	// StrategyType returns the tag this strategy is registered under.
	StrategyType() string

	// Initialize performs the first rotation for a secret that does not
	// yet exist in the store.
	Initialize(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error)

	// Rotate replaces an existing, due secret with a freshly generated
	// value.
	Rotate(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext) (RotationResult, error)
}

// performer is implemented by every concrete strategy's per-kind mutation
// routine. runOperation wraps it with the shared eligibility check.
type performer func(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, store SecretStore) (RotationResult, error)

// runInitialization evaluates initialization candidacy for resource and,
// absent a skip verdict, delegates to perform. Every returned verdict is
// stamped with strategyType and its wall-clock duration and observed by the
// metrics package before it reaches the caller.
func runInitialization(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, strategyType string, perform performer) (RotationResult, error) {
	return runOperation(ctx, resource, opCtx, strategyType, "initialize", EvaluateInitializationCandidacy, perform)
}

// runRotation evaluates rotation candidacy for resource and, absent a skip
// verdict, delegates to perform. See runInitialization for the metrics and
// stamping behavior shared by both.
func runRotation(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, strategyType string, perform performer) (RotationResult, error) {
	return runOperation(ctx, resource, opCtx, strategyType, "rotate", EvaluateRotationCandidacy, perform)
}

type candidacyEvaluator func(ctx context.Context, resource ResourceConfiguration, store SecretStore, opCtx OperationContext) (candidacyVerdict, error)

func runOperation(ctx context.Context, resource ResourceConfiguration, opCtx OperationContext, strategyType, operation string, evaluate candidacyEvaluator, perform performer) (RotationResult, error) {
	metrics.RecordAttempt(strategyType, operation)
	started := opCtx.Clock.Now()

	result, err := func() (RotationResult, error) {
		store, err := resolveStore(resource, opCtx)
		if err != nil {
			return RotationResult{}, err
		}

		verdict, err := evaluate(ctx, resource, store, opCtx)
		if err != nil {
			return RotationResult{}, err
		}
		if verdict.Skip {
			return verdict.Result, nil
		}

		return perform(ctx, resource, opCtx, store)
	}()
	if err != nil {
		return RotationResult{}, err
	}

	result.Strategy = strategyType
	result.Duration = opCtx.Clock.Now().Sub(started)
	metrics.RecordOutcome(strategyType, result.WasRotated, result.Duration)
	if result.recoveryRequired {
		metrics.RecordRecoveryRequired(strategyType)
	}
	return result, nil
}

// resolveStore looks up resource.StoreName in opCtx.Stores.
func resolveStore(resource ResourceConfiguration, opCtx OperationContext) (SecretStore, error) {
	store, ok := opCtx.Stores[resource.StoreName]
	if !ok {
		return nil, rotationerrors.ConfigError{
			Field:   "StoreName",
			Message: fmt.Sprintf("no secret store registered under name %q for resource %q", resource.StoreName, resource.Name),
		}
	}
	return store, nil
}

// whatIfResult builds the "would have..." success verdict every strategy
// returns from IsWhatIf mode, immediately before its first mutating call.
func whatIfResult(name, note string) RotationResult {
	return RotationResult{Name: name, WasRotated: true, Notes: "would have " + note}
}

// recoveryRequiredResult builds the verdict for the case where an external
// mutation succeeded but the follow-up secret store write failed. The note
// is the message of a rotationerrors.RecoveryRequiredError wrapping
// storeErr, the same error a driver would see if this were surfaced as a Go
// error instead of a result.
func recoveryRequiredResult(name string, storeErr error) RotationResult {
	err := rotationerrors.RecoveryRequiredError{Name: name, Err: storeErr}
	return RotationResult{Name: name, WasRotated: false, Notes: err.Error(), recoveryRequired: true}
}

// externalFailureResult builds the verdict for a control-plane or database
// call (a read, or the mutating call itself) that failed before the secret
// store was written. The note is the message of a
// rotationerrors.ExternalError wrapping cause.
func externalFailureResult(name, resource, operation string, cause error) RotationResult {
	err := rotationerrors.ExternalError{Resource: resource, Operation: operation, Err: cause}
	return RotationResult{Name: name, WasRotated: false, Notes: err.Error()}
}

func failureResult(name, note string) RotationResult {
	return RotationResult{Name: name, WasRotated: false, Notes: note}
}

func successResult(name, note string) RotationResult {
	return RotationResult{Name: name, WasRotated: true, Notes: note}
}

package rotation

import (
	"context"
	"errors"
	"time"
)

// candidacyVerdict is the outcome of an eligibility check: either "proceed"
// (Skip is the zero value) or a terminal skip result the caller should
// return without invoking the strategy's mutating routine.
type candidacyVerdict struct {
	Skip   bool
	Result RotationResult
}

func proceed() candidacyVerdict { return candidacyVerdict{} }

func skip(name, note string) candidacyVerdict {
	return candidacyVerdict{
		Skip:   true,
		Result: RotationResult{Name: name, WasRotated: false, Notes: note},
	}
}

// EvaluateInitializationCandidacy decides whether Initialize should proceed.
// A secret that already exists blocks initialization unless opCtx.Force is
// set.
func EvaluateInitializationCandidacy(ctx context.Context, resource ResourceConfiguration, store SecretStore, opCtx OperationContext) (candidacyVerdict, error) {
	_, err := store.GetSecret(ctx, resource.Name)
	if err != nil {
		var notFound ErrSecretNotFound
		if errors.As(err, &notFound) {
			return proceed(), nil
		}
		return candidacyVerdict{}, err
	}

	if opCtx.Force {
		return proceed(), nil
	}

	return skip(resource.Name, "already initialized"), nil
}

// EvaluateRotationCandidacy decides whether Rotate should proceed. An
// absent secret always skips with "not found"; a present secret that is
// not yet due skips with "not due" unless opCtx.Force is set.
func EvaluateRotationCandidacy(ctx context.Context, resource ResourceConfiguration, store SecretStore, opCtx OperationContext) (candidacyVerdict, error) {
	info, err := store.GetSecret(ctx, resource.Name)
	if err != nil {
		var notFound ErrSecretNotFound
		if errors.As(err, &notFound) {
			return skip(resource.Name, "not found"), nil
		}
		return candidacyVerdict{}, err
	}

	if opCtx.Force {
		return proceed(), nil
	}

	now := opCtx.Clock.Now()
	if !ShouldRotate(info, now, resource.ExpirationOverlapDays) {
		return skip(resource.Name, "not due"), nil
	}

	return proceed(), nil
}

// ShouldRotate reports whether a secret with the given metadata is due for
// rotation at time now, given an overlap window in days. A secret with no
// ExpiresOn is never due. The comparison ties at exactly overlapDays in
// favor of rotating.
func ShouldRotate(info SecretInfo, now time.Time, overlapDays float64) bool {
	if info.ExpiresOn == nil {
		return false
	}
	daysToExpire := info.ExpiresOn.Sub(now).Hours() / 24
	return daysToExpire <= overlapDays
}

package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldRotate_NoExpiration(t *testing.T) {
	info := SecretInfo{}
	assert.False(t, ShouldRotate(info, time.Now(), 0))
}

func TestShouldRotate_TieBreaksToRotate(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	expires := now.AddDate(0, 0, 30)
	info := SecretInfo{ExpiresOn: &expires}
	assert.True(t, ShouldRotate(info, now, 30))
}

func TestShouldRotate_NotDue(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	expires := now.AddDate(0, 0, 31)
	info := SecretInfo{ExpiresOn: &expires}
	assert.False(t, ShouldRotate(info, now, 30))
}

func TestEvaluateRotationCandidacy_NotFound(t *testing.T) {
	store := &fakeStore{err: ErrSecretNotFound{Name: "s1"}}
	resource := ResourceConfiguration{Name: "s1"}
	opCtx := OperationContext{Clock: FixedClock{At: time.Now()}}

	verdict, err := EvaluateRotationCandidacy(context.Background(), resource, store, opCtx)
	require.NoError(t, err)
	require.True(t, verdict.Skip)
	assert.Contains(t, verdict.Result.Notes, "not found")
}

func TestEvaluateRotationCandidacy_ForceBypassesNotDue(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	expires := now.AddDate(0, 1, 0)
	store := &fakeStore{info: SecretInfo{Name: "s1", ExpiresOn: &expires}}
	resource := ResourceConfiguration{Name: "s1"}
	opCtx := OperationContext{Clock: FixedClock{At: now}, Force: true}

	verdict, err := EvaluateRotationCandidacy(context.Background(), resource, store, opCtx)
	require.NoError(t, err)
	assert.False(t, verdict.Skip)
}

func TestEvaluateInitializationCandidacy_AlreadyInitialized(t *testing.T) {
	store := &fakeStore{info: SecretInfo{Name: "s1"}}
	resource := ResourceConfiguration{Name: "s1"}
	opCtx := OperationContext{Clock: FixedClock{At: time.Now()}}

	verdict, err := EvaluateInitializationCandidacy(context.Background(), resource, store, opCtx)
	require.NoError(t, err)
	require.True(t, verdict.Skip)
	assert.Contains(t, verdict.Result.Notes, "already initialized")
}

// fakeStore is a minimal SecretStore test double returning a fixed
// info/value or error, for exercising eligibility logic in isolation.
type fakeStore struct {
	info  SecretInfo
	value string
	err   error
}

func (f *fakeStore) GetSecret(ctx context.Context, name string) (SecretInfo, error) {
	if f.err != nil {
		return SecretInfo{}, f.err
	}
	return f.info, nil
}

func (f *fakeStore) GetSecretValue(ctx context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.value, nil
}

func (f *fakeStore) UpdateSecret(ctx context.Context, name, value, contentType string, expiresOn time.Time) (SecretInfo, error) {
	f.info = SecretInfo{Name: name, ContentType: contentType, ExpiresOn: &expiresOn}
	f.value = value
	return f.info, nil
}

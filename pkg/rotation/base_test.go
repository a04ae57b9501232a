package rotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingUpdateStore returns a fixed GetSecret result but always fails
// UpdateSecret, simulating a store write that fails after an external
// mutation already succeeded.
type failingUpdateStore struct {
	info SecretInfo
	err  error
}

func (f *failingUpdateStore) GetSecret(ctx context.Context, name string) (SecretInfo, error) {
	return f.info, nil
}

func (f *failingUpdateStore) GetSecretValue(ctx context.Context, name string) (string, error) {
	return "", nil
}

func (f *failingUpdateStore) UpdateSecret(ctx context.Context, name, value, contentType string, expiresOn time.Time) (SecretInfo, error) {
	return SecretInfo{}, f.err
}

func TestRunOperation_StampsStrategyAndDuration(t *testing.T) {
	store := &fakeStore{err: ErrSecretNotFound{Name: "s1"}}
	resource := ResourceConfiguration{Name: "s1", StoreName: "m", ExpirationDays: 90}
	opCtx := OperationContext{
		Stores:       map[string]SecretStore{"m": store},
		Clock:        FixedClock{At: time.Now()},
		SecretValue1: "new",
	}

	strategy := NewManualStrategy(testLogger())
	result, err := strategy.Initialize(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.Equal(t, manualStrategyType, result.Strategy)
	assert.GreaterOrEqual(t, result.Duration, time.Duration(0))
}

func TestRecoveryRequiredResult_NotesMentionReinitialization(t *testing.T) {
	store := &failingUpdateStore{
		err: errors.New("vault unavailable"),
	}
	cloud := &fakeCloudClient{
		serverDetails: DatabaseServerDetails{Hostname: "db.example.com", AdministratorLogin: "admin1"},
	}
	resource := ResourceConfiguration{Name: "s1", StoreName: "m", TargetResourceId: "/subscriptions/x", ExpirationDays: 90}
	opCtx := OperationContext{
		Stores: map[string]SecretStore{"m": store},
		Clock:  FixedClock{At: time.Now()},
		Force:  true,
	}

	strategy := NewAdministratorStrategy(cloud, testLogger())
	result, err := strategy.Initialize(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.False(t, result.WasRotated)
	assert.Contains(t, result.Notes, "re-initialization")
	assert.Contains(t, result.Notes, "vault unavailable")
	assert.Equal(t, administratorStrategyType, result.Strategy)
}

func TestAdministratorStrategy_ExternalFailureNotesNameResourceAndOperation(t *testing.T) {
	store := &fakeStore{err: ErrSecretNotFound{Name: "s1"}}
	cloud := &fakeCloudClient{err: errors.New("connection refused")}
	resource := ResourceConfiguration{Name: "s1", StoreName: "m", TargetResourceId: "/subscriptions/x", ExpirationDays: 90}
	opCtx := OperationContext{
		Stores: map[string]SecretStore{"m": store},
		Clock:  FixedClock{At: time.Now()},
	}

	strategy := NewAdministratorStrategy(cloud, testLogger())
	result, err := strategy.Initialize(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.False(t, result.WasRotated)
	assert.Contains(t, result.Notes, "/subscriptions/x")
	assert.Contains(t, result.Notes, "get database server details")
	assert.Contains(t, result.Notes, "connection refused")
}

package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManualContext(store SecretStore, now time.Time) OperationContext {
	return OperationContext{
		Stores: map[string]SecretStore{"m": store},
		Clock:  FixedClock{At: now},
	}
}

func TestManualStrategy_Uninitialized(t *testing.T) {
	store := &fakeStore{err: ErrSecretNotFound{Name: "s1"}}
	resource := ResourceConfiguration{Name: "s1", StoreName: "m", ExpirationDays: 90}
	opCtx := newTestManualContext(store, time.Now())

	strategy := NewManualStrategy(testLogger())
	result, err := strategy.Rotate(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.False(t, result.WasRotated)
	assert.Contains(t, result.Notes, "not found")
}

func TestManualStrategy_NotDue(t *testing.T) {
	now := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	expires := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{info: SecretInfo{Name: "s1", ExpiresOn: &expires}, value: "old"}
	resource := ResourceConfiguration{Name: "s1", StoreName: "m", ExpirationDays: 90}
	opCtx := newTestManualContext(store, now)

	strategy := NewManualStrategy(testLogger())
	result, err := strategy.Rotate(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.False(t, result.WasRotated)
	assert.Contains(t, result.Notes, "not due")
	assert.Equal(t, &expires, store.info.ExpiresOn)
}

func TestManualStrategy_Expired(t *testing.T) {
	expires := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{info: SecretInfo{Name: "s1", ExpiresOn: &expires}, value: "old"}
	resource := ResourceConfiguration{Name: "s1", StoreName: "m", ExpirationDays: 90}
	opCtx := newTestManualContext(store, now)
	opCtx.SecretValue1 = "new"

	strategy := NewManualStrategy(testLogger())
	result, err := strategy.Rotate(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.True(t, result.WasRotated)
	assert.Equal(t, "new", store.value)
	assert.Equal(t, time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC), store.info.ExpiresOn.UTC())
}

func TestManualStrategy_OverlappingWindow(t *testing.T) {
	expires := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{info: SecretInfo{Name: "s1", ExpiresOn: &expires}, value: "old"}
	resource := ResourceConfiguration{Name: "s1", StoreName: "m", ExpirationDays: 90, ExpirationOverlapDays: 30}
	opCtx := newTestManualContext(store, now)
	opCtx.SecretValue1 = "new"

	strategy := NewManualStrategy(testLogger())
	result, err := strategy.Rotate(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.True(t, result.WasRotated)
}

func TestManualStrategy_WhatIfDoesNotMutate(t *testing.T) {
	store := &fakeStore{err: ErrSecretNotFound{Name: "s1"}}
	resource := ResourceConfiguration{Name: "s1", StoreName: "m", ExpirationDays: 90}
	opCtx := newTestManualContext(store, time.Now())
	opCtx.Force = true
	opCtx.IsWhatIf = true
	opCtx.SecretValue1 = "new"

	strategy := NewManualStrategy(testLogger())
	result, err := strategy.Initialize(context.Background(), resource, opCtx)

	require.NoError(t, err)
	assert.True(t, result.WasRotated)
	assert.Empty(t, store.value)
}

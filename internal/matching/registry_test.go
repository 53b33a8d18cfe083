package matching

import (
	"sync"
	"testing"
	"time"

	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSetsPendingWithTTL(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2, 3})

	assert.Equal(t, models.RequestStatusPending, request.Status)
	assert.Equal(t, []uint{1, 2, 3}, request.MatchedProviderIDs())
	assert.WithinDuration(t, time.Now().Add(RequestTTL), request.ExpiresAt, 5*time.Second)
}

func TestGetExpiresOverdueRequest(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	forceExpiry(t, db, request.ID)

	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusExpired, got.Status)

	// Expiry is terminal: a later accept must fail.
	_, err = registry.TryAccept(request.ID, 1)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestGetUnknownRequest(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	_, err := registry.Get(12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTryAcceptRejectsUnmatchedProvider(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2})

	_, err := registry.TryAccept(request.ID, 99)
	assert.ErrorIs(t, err, ErrNotMatched)

	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, got.Status)
}

func TestTryAcceptExactlyOneWinner(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	matched := []uint{1, 2, 3, 4, 5, 6, 7, 8}
	request := seedRequest(t, registry, models.ServiceWalker, matched)

	var wg sync.WaitGroup
	results := make([]error, len(matched))
	for i, providerID := range matched {
		wg.Add(1)
		go func(i int, providerID uint) {
			defer wg.Done()
			_, results[i] = registry.TryAccept(request.ID, providerID)
		}(i, providerID)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyClaimed)
		}
	}
	assert.Equal(t, 1, wins)

	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, got.Status)
	require.NotNil(t, got.AcceptedBy)
	require.NotNil(t, got.AcceptedAt)
}

func TestTryAcceptIdempotentForWinner(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2})

	first, err := registry.TryAccept(request.ID, 1)
	require.NoError(t, err)

	again, err := registry.TryAccept(request.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	require.NotNil(t, again.AcceptedBy)
	assert.Equal(t, uint(1), *again.AcceptedBy)
}

func TestTryAcceptAfterExpiry(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	forceExpiry(t, db, request.ID)

	_, err := registry.TryAccept(request.ID, 1)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestReleaseReturnsRequestToTheField(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2})

	_, err := registry.TryAccept(request.ID, 1)
	require.NoError(t, err)

	require.NoError(t, registry.Release(request.ID, 1))

	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, got.Status)
	assert.Nil(t, got.AcceptedBy)

	// Another matched provider can now claim it.
	won, err := registry.TryAccept(request.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, won.AcceptedBy)
	assert.Equal(t, uint(2), *won.AcceptedBy)
}

func TestReleaseByNonWinnerIsNoop(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2})

	_, err := registry.TryAccept(request.ID, 1)
	require.NoError(t, err)

	require.NoError(t, registry.Release(request.ID, 2))

	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, got.Status)
	require.NotNil(t, got.AcceptedBy)
	assert.Equal(t, uint(1), *got.AcceptedBy)
}

func TestReleaseAfterTTLMarksExpired(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1})

	_, err := registry.TryAccept(request.ID, 1)
	require.NoError(t, err)

	forceExpiry(t, db, request.ID)

	require.NoError(t, registry.Release(request.ID, 1))

	var got models.ServiceRequest
	require.NoError(t, db.First(&got, request.ID).Error)
	assert.Equal(t, models.RequestStatusExpired, got.Status)
}

func TestSweepExpired(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db)

	overdue := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	fresh := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	forceExpiry(t, db, overdue.ID)

	require.NoError(t, db.Create(&models.InboxEntry{ProviderID: 1, ProviderType: models.ServiceWalker, RequestID: overdue.ID}).Error)

	n, err := registry.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var entry models.InboxEntry
	require.NoError(t, db.Where("request_id = ?", overdue.ID).First(&entry).Error)
	assert.True(t, entry.IsDismissed)

	got, err := registry.Get(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, got.Status)
}

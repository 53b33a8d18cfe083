package matching

import (
	"regexp"
	"sync"
	"testing"

	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMatchingStack(t *testing.T) (*gorm.DB, *Registry, *Ledger, *Inbox) {
	t.Helper()
	db := newTestDB(t)
	registry := NewRegistry(db)
	ledger := NewLedger(db)
	inbox := NewInbox(db, registry, ledger, NewFactory())
	return db, registry, ledger, inbox
}

func deliverTo(t *testing.T, inbox *Inbox, request *models.ServiceRequest, providerIDs ...uint) []models.InboxEntry {
	t.Helper()
	items := make([]DeliveryItem, 0, len(providerIDs))
	for _, id := range providerIDs {
		items = append(items, DeliveryItem{ProviderID: id, DistanceKm: 2.5, Earnings: 32000})
	}
	entries, err := inbox.Deliver(request, EntrySnapshot{
		PetName:   request.PetName,
		PetBreed:  request.PetBreed,
		OwnerName: "Camila",
	}, items)
	require.NoError(t, err)
	require.Len(t, entries, len(providerIDs))
	return entries
}

func TestDeliverFansOutToEveryMatchedProvider(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2, 3})
	entries := deliverTo(t, inbox, request, 1, 2, 3)

	for _, entry := range entries {
		assert.Equal(t, request.ID, entry.RequestID)
		assert.Equal(t, "Rocky", entry.PetName)
		assert.Equal(t, "Camila", entry.OwnerName)
		assert.False(t, entry.IsDismissed)
	}

	var count int64
	require.NoError(t, db.Model(&models.InboxEntry{}).Where("request_id = ?", request.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestDeliverTwiceViolatesUniqueEntry(t *testing.T) {
	_, registry, _, inbox := newMatchingStack(t)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	deliverTo(t, inbox, request, 1)

	_, err := inbox.Deliver(request, EntrySnapshot{}, []DeliveryItem{{ProviderID: 1}})
	assert.Error(t, err)
}

func TestListPendingShowsCountdownAndExpiresLazily(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)

	fresh := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	overdue := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	deliverTo(t, inbox, fresh, 1)
	deliverTo(t, inbox, overdue, 1)
	forceExpiry(t, db, overdue.ID)

	entries, err := inbox.ListPending(1, models.ServiceWalker)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byRequest := map[uint]PendingEntry{}
	for _, e := range entries {
		byRequest[e.RequestID] = e
	}

	assert.False(t, byRequest[fresh.ID].IsExpired)
	assert.Greater(t, byRequest[fresh.ID].ExpiresInSeconds, int64(0))

	assert.True(t, byRequest[overdue.ID].IsExpired)
	assert.Equal(t, int64(0), byRequest[overdue.ID].ExpiresInSeconds)

	// The expired entry was dismissed; its final appearance was above.
	entries, err = inbox.ListPending(1, models.ServiceWalker)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh.ID, entries[0].RequestID)
}

func TestMarkRead(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	entries := deliverTo(t, inbox, request, 1)

	require.NoError(t, inbox.MarkRead(entries[0].ID, 1))

	var got models.InboxEntry
	require.NoError(t, db.First(&got, entries[0].ID).Error)
	assert.True(t, got.IsRead)

	assert.ErrorIs(t, inbox.MarkRead(entries[0].ID, 2), ErrUnauthorized)
	assert.ErrorIs(t, inbox.MarkRead(9999, 1), ErrNotFound)
}

func TestRejectDismissesOnlyOwnEntry(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2})
	entries := deliverTo(t, inbox, request, 1, 2)

	result, err := inbox.Respond(entries[0].ID, 1, ActionReject)
	require.NoError(t, err)
	assert.True(t, result.Entry.IsDismissed)
	assert.NotNil(t, result.Entry.RespondedAt)

	// The request is still claimable by the other provider.
	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, got.Status)

	var other models.InboxEntry
	require.NoError(t, db.First(&other, entries[1].ID).Error)
	assert.False(t, other.IsDismissed)
}

func TestRejectTwiceIsNoop(t *testing.T) {
	_, registry, _, inbox := newMatchingStack(t)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	entries := deliverTo(t, inbox, request, 1)

	_, err := inbox.Respond(entries[0].ID, 1, ActionReject)
	require.NoError(t, err)

	result, err := inbox.Respond(entries[0].ID, 1, ActionReject)
	require.NoError(t, err)
	assert.True(t, result.Entry.IsDismissed)
}

func TestRejectAfterAnotherProviderWon(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)
	seedWalkerWithID(t, db, 1)
	seedWalkerWithID(t, db, 2)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2})
	entries := deliverTo(t, inbox, request, 1, 2)

	_, err := inbox.Respond(entryFor(entries, 1).ID, 1, ActionAccept)
	require.NoError(t, err)

	// The loser's entry was dismissed by the fan-in; their reject must
	// say the request was claimed, not pretend they declined it.
	_, err = inbox.Respond(entryFor(entries, 2).ID, 2, ActionReject)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestAcceptCreatesBookingAndDismissesFanOut(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)
	seedWalkerWithID(t, db, 1)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1, 2})
	entries := deliverTo(t, inbox, request, 1, 2)

	result, err := inbox.Respond(entryFor(entries, 1).ID, 1, ActionAccept)
	require.NoError(t, err)
	require.NotNil(t, result.Booking)

	booking := result.Booking
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, request.ID, booking.RequestID)
	assert.Equal(t, uint(1), booking.ProviderID)
	assert.Equal(t, float64(32000), booking.Price)
	assert.Equal(t, "2026-09-05", booking.Date)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}$`), booking.MeetingPIN)

	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, got.Status)
	require.NotNil(t, got.BookingID)
	assert.Equal(t, booking.ID, *got.BookingID)

	// Every entry for the request is gone from inboxes.
	var open int64
	require.NoError(t, db.Model(&models.InboxEntry{}).
		Where("request_id = ? AND is_dismissed = ?", request.ID, false).Count(&open).Error)
	assert.Equal(t, int64(0), open)
}

func TestWinnerReacceptReturnsExistingBooking(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)
	seedWalkerWithID(t, db, 1)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	entries := deliverTo(t, inbox, request, 1)

	first, err := inbox.Respond(entries[0].ID, 1, ActionAccept)
	require.NoError(t, err)

	second, err := inbox.Respond(entries[0].ID, 1, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)

	var count int64
	require.NoError(t, db.Model(&models.Booking{}).Where("request_id = ?", request.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestConcurrentAcceptsYieldOneBooking(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)
	providerIDs := []uint{1, 2, 3, 4}
	for _, id := range providerIDs {
		seedWalkerWithID(t, db, id)
	}

	request := seedRequest(t, registry, models.ServiceWalker, providerIDs)
	entries := deliverTo(t, inbox, request, providerIDs...)

	var wg sync.WaitGroup
	errs := make([]error, len(providerIDs))
	for i, id := range providerIDs {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = inbox.Respond(entryFor(entries, id).ID, id, ActionAccept)
		}(i, id)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyClaimed)
		}
	}
	assert.Equal(t, 1, wins)

	var count int64
	require.NoError(t, db.Model(&models.Booking{}).Where("request_id = ?", request.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCapacityFailureRollsBackAcceptance(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)

	full := seedDaycare(t, db, originLat, originLng, 8, 1)
	seedBooking(t, db, models.ServiceDaycare, full.ID, "2026-09-05", "", models.BookingStatusConfirmed)
	free := seedDaycare(t, db, originLat, originLng, 8, 5)

	request := seedRequest(t, registry, models.ServiceDaycare, []uint{full.ID, free.ID})
	entries := deliverTo(t, inbox, request, full.ID, free.ID)

	_, err := inbox.Respond(entryFor(entries, full.ID).ID, full.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// The compensating rollback returned the request to the field.
	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, got.Status)
	assert.Nil(t, got.AcceptedBy)

	// No booking leaked out of the failed transaction.
	var count int64
	require.NoError(t, db.Model(&models.Booking{}).Where("request_id = ?", request.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// And the other provider can still win it.
	result, err := inbox.Respond(entryFor(entries, free.ID).ID, free.ID, ActionAccept)
	require.NoError(t, err)
	require.NotNil(t, result.Booking)
	assert.Equal(t, free.ID, result.Booking.ProviderID)
}

func TestConcurrentAcceptsHonorProviderCapacity(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)

	daycare := seedDaycare(t, db, originLat, originLng, 8, 2)

	const demand = 5
	requests := make([]*models.ServiceRequest, demand)
	entries := make([]models.InboxEntry, demand)
	for i := range requests {
		requests[i] = seedRequest(t, registry, models.ServiceDaycare, []uint{daycare.ID})
		entries[i] = deliverTo(t, inbox, requests[i], daycare.ID)[0]
	}

	var wg sync.WaitGroup
	errs := make([]error, demand)
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = inbox.Respond(entries[i].ID, daycare.ID, ActionAccept)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrCapacityExceeded)

		// Every loser rolled back to the field, not stuck half-accepted.
		got, gErr := registry.Get(requests[i].ID)
		require.NoError(t, gErr)
		assert.Equal(t, models.RequestStatusPending, got.Status)
		assert.Nil(t, got.AcceptedBy)
	}
	assert.Equal(t, 2, wins)

	var count int64
	require.NoError(t, db.Model(&models.Booking{}).
		Where("provider_id = ? AND date = ?", daycare.ID, "2026-09-05").
		Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestScheduleConflictRollsBackAcceptance(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)

	walker := seedWalker(t, db, originLat, originLng, 5, 3)
	seedBooking(t, db, models.ServiceWalker, walker.ID, "2026-09-05", "10:00", models.BookingStatusInProgress)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{walker.ID})
	entries := deliverTo(t, inbox, request, walker.ID)

	_, err := inbox.Respond(entries[0].ID, walker.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrScheduleConflict)

	got, err := registry.Get(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, got.Status)
}

func TestAcceptExpiredRequestDismissesEntries(t *testing.T) {
	db, registry, _, inbox := newMatchingStack(t)
	seedWalkerWithID(t, db, 1)

	request := seedRequest(t, registry, models.ServiceWalker, []uint{1})
	entries := deliverTo(t, inbox, request, 1)
	forceExpiry(t, db, request.ID)

	_, err := inbox.Respond(entries[0].ID, 1, ActionAccept)
	assert.ErrorIs(t, err, ErrExpired)

	var got models.InboxEntry
	require.NoError(t, db.First(&got, entries[0].ID).Error)
	assert.True(t, got.IsDismissed)
}

// Walker A is 3.0 km from the owner with a 5.0 km radius; Walker B is
// 8.0 km out with the same radius. Only A is matched, offered, and able
// to take the walk.
func TestNeighborhoodWalkScenario(t *testing.T) {
	db, registry, ledger, inbox := newMatchingStack(t)

	walkerA := seedWalker(t, db, originLat+3*latPerKm, originLng, 5.0, 1)
	walkerB := seedWalker(t, db, originLat+8*latPerKm, originLng, 5.0, 1)

	matches := FindInRange(originLat, originLng, CandidatesFromProviders([]models.Provider{walkerA, walkerB}))
	require.Len(t, matches, 1)
	assert.Equal(t, walkerA.ID, matches[0].ID)

	matched := []uint{matches[0].ID}
	request := seedRequest(t, registry, models.ServiceWalker, matched)
	entries := deliverTo(t, inbox, request, matched...)

	// B never got an entry and cannot claim the request directly.
	_, err := registry.TryAccept(request.ID, walkerB.ID)
	assert.ErrorIs(t, err, ErrNotMatched)

	result, err := inbox.Respond(entries[0].ID, walkerA.ID, ActionAccept)
	require.NoError(t, err)
	require.NotNil(t, result.Booking)

	// A's slot for that time is now taken.
	ok, err := ledger.HasCapacity(models.ServiceWalker, walkerA.ID, request.RequestedDate, request.RequestedTime)
	require.NoError(t, err)
	assert.False(t, ok)
}

func entryFor(entries []models.InboxEntry, providerID uint) *models.InboxEntry {
	for i := range entries {
		if entries[i].ProviderID == providerID {
			return &entries[i]
		}
	}
	return nil
}

// seedWalkerWithID creates a walker profile whose id is forced, so tests
// can line profiles up with matched provider id sets.
func seedWalkerWithID(t *testing.T, db *gorm.DB, id uint) *models.WalkerProfile {
	t.Helper()
	walker := models.WalkerProfile{
		UserID:          id + 500,
		Name:            "Walker",
		Latitude:        ptr(originLat),
		Longitude:       ptr(originLng),
		ServiceRadiusKm: 5,
		IsActive:        true,
		PricePerWalk:    35000,
		CapacityMax:     3,
	}
	walker.ID = id
	require.NoError(t, db.Create(&walker).Error)
	return &walker
}

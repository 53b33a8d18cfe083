package matching

import (
	"sync/atomic"
	"testing"

	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// requestSeq hands out distinct request ids for seeded bookings; the
// bookings table is unique per request.
var requestSeq uint32 = 10000

func nextRequestID() uint {
	return uint(atomic.AddUint32(&requestSeq, 1))
}

func seedBooking(t *testing.T, db *gorm.DB, serviceType models.ServiceType, providerID uint, date, timeSlot string, status models.BookingStatus) {
	t.Helper()
	booking := models.Booking{
		OwnerID:     1,
		PetID:       1,
		ServiceType: serviceType,
		ProviderID:  providerID,
		RequestID:   nextRequestID(),
		Date:        date,
		Time:        timeSlot,
		Status:      status,
		Price:       30000,
	}
	require.NoError(t, db.Create(&booking).Error)
}

func TestReserveWalkerScheduleConflict(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	walker := seedWalker(t, db, originLat, originLng, 5, 3)

	seedBooking(t, db, models.ServiceWalker, walker.ID, "2026-09-05", "10:00", models.BookingStatusConfirmed)

	err := ledger.Reserve(db, models.ServiceWalker, walker.ID, "2026-09-05", "10:00")
	assert.ErrorIs(t, err, ErrScheduleConflict)

	// A different slot the same day is fine.
	err = ledger.Reserve(db, models.ServiceWalker, walker.ID, "2026-09-05", "16:00")
	assert.NoError(t, err)
}

func TestReserveWalkerIncrementsLiveCounter(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	walker := seedWalker(t, db, originLat, originLng, 5, 2)

	require.NoError(t, ledger.Reserve(db, models.ServiceWalker, walker.ID, "2026-09-05", "10:00"))

	var got models.WalkerProfile
	require.NoError(t, db.First(&got, walker.ID).Error)
	assert.Equal(t, 1, got.CapacityCurrent)

	require.NoError(t, ledger.ReleaseWalkerSlot(walker.ID))
	require.NoError(t, db.First(&got, walker.ID).Error)
	assert.Equal(t, 0, got.CapacityCurrent)

	// Never below zero.
	require.NoError(t, ledger.ReleaseWalkerSlot(walker.ID))
	require.NoError(t, db.First(&got, walker.ID).Error)
	assert.Equal(t, 0, got.CapacityCurrent)
}

func TestReserveDaycareCountsWholeDay(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	daycare := seedDaycare(t, db, originLat, originLng, 8, 2)

	// Two active bookings at different times still fill a 2-pet day.
	seedBooking(t, db, models.ServiceDaycare, daycare.ID, "2026-09-05", "08:00", models.BookingStatusConfirmed)
	seedBooking(t, db, models.ServiceDaycare, daycare.ID, "2026-09-05", "", models.BookingStatusInProgress)

	err := ledger.Reserve(db, models.ServiceDaycare, daycare.ID, "2026-09-05", "")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// The next day is unaffected.
	assert.NoError(t, ledger.Reserve(db, models.ServiceDaycare, daycare.ID, "2026-09-06", ""))
}

func TestReserveIgnoresFinishedBookings(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	daycare := seedDaycare(t, db, originLat, originLng, 8, 1)

	seedBooking(t, db, models.ServiceDaycare, daycare.ID, "2026-09-05", "", models.BookingStatusCompleted)
	seedBooking(t, db, models.ServiceDaycare, daycare.ID, "2026-09-05", "", models.BookingStatusCancelled)

	assert.NoError(t, ledger.Reserve(db, models.ServiceDaycare, daycare.ID, "2026-09-05", ""))
}

func TestHasCapacity(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	daycare := seedDaycare(t, db, originLat, originLng, 8, 1)

	ok, err := ledger.HasCapacity(models.ServiceDaycare, daycare.ID, "2026-09-05", "")
	require.NoError(t, err)
	assert.True(t, ok)

	seedBooking(t, db, models.ServiceDaycare, daycare.ID, "2026-09-05", "", models.BookingStatusConfirmed)

	ok, err = ledger.HasCapacity(models.ServiceDaycare, daycare.ID, "2026-09-05", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasCapacityUnknownProvider(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	_, err := ledger.HasCapacity(models.ServiceWalker, 999, "2026-09-05", "10:00")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVetSingleVisitPerSlot(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	seedBooking(t, db, models.ServiceVet, 7, "2026-09-05", "10:00", models.BookingStatusConfirmed)

	err := ledger.Reserve(db, models.ServiceVet, 7, "2026-09-05", "10:00")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	assert.NoError(t, ledger.Reserve(db, models.ServiceVet, 7, "2026-09-05", "11:00"))
}

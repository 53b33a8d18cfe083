package matching

import (
	"fmt"

	"github.com/pettrust/pettrust-backend/internal/models"
	"gorm.io/gorm"
)

// Ledger tracks provider capacity per slot (walkers, vets) or per day
// (daycares) and hands out reservations. Reservations for the same
// (provider, date, time) key are serialized with an in-process lock,
// held by the caller via LockSlot across its transaction, so a
// concurrent pair that would together exceed capacity cannot both
// succeed.
type Ledger struct {
	db    *gorm.DB
	locks *keyedMutex
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, locks: newKeyedMutex()}
}

func slotKey(serviceType models.ServiceType, providerID uint, date, timeSlot string) string {
	if serviceType == models.ServiceDaycare {
		// Daycare capacity is day-scoped; the time component is ignored.
		return fmt.Sprintf("capacity:%s:%d:%s", serviceType, providerID, date)
	}
	return fmt.Sprintf("capacity:%s:%d:%s:%s", serviceType, providerID, date, timeSlot)
}

func (l *Ledger) activeCount(tx *gorm.DB, serviceType models.ServiceType, providerID uint, date, timeSlot string, statuses []models.BookingStatus) (int64, error) {
	q := tx.Model(&models.Booking{}).
		Where("provider_id = ? AND service_type = ? AND date = ? AND status IN (?)",
			providerID, serviceType, date, statuses)
	if serviceType != models.ServiceDaycare {
		q = q.Where("time = ?", timeSlot)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count bookings for provider %d: %w", providerID, err)
	}
	return count, nil
}

// HasCapacity answers whether the provider could still take a booking
// for the given date (and slot, for slot-scoped providers). Read-only;
// the authoritative check happens in Reserve.
func (l *Ledger) HasCapacity(serviceType models.ServiceType, providerID uint, date, timeSlot string) (bool, error) {
	limit, err := l.capacityLimit(l.db, serviceType, providerID)
	if err != nil {
		return false, err
	}
	count, err := l.activeCount(l.db, serviceType, providerID, date, timeSlot, models.ActiveBookingStatuses())
	if err != nil {
		return false, err
	}
	return count < limit, nil
}

func (l *Ledger) capacityLimit(tx *gorm.DB, serviceType models.ServiceType, providerID uint) (int64, error) {
	switch serviceType {
	case models.ServiceWalker:
		var walker models.WalkerProfile
		if err := tx.First(&walker, providerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return 0, ErrNotFound
			}
			return 0, err
		}
		return int64(walker.CapacityMax), nil
	case models.ServiceDaycare:
		var daycare models.DaycareProfile
		if err := tx.First(&daycare, providerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return 0, ErrNotFound
			}
			return 0, err
		}
		return int64(daycare.CapacityTotal), nil
	default:
		// A vet makes one home visit per slot.
		return 1, nil
	}
}

// LockSlot serializes work on a provider's capacity slot. The caller
// must hold the returned unlock across the whole transaction that
// reserves the slot and inserts the booking, otherwise a concurrent
// reservation can count the slot before the first one commits.
func (l *Ledger) LockSlot(serviceType models.ServiceType, providerID uint, date, timeSlot string) func() {
	return l.locks.Lock(slotKey(serviceType, providerID, date, timeSlot))
}

// Reserve takes a capacity slot for the provider inside tx. The caller
// holds the slot lock via LockSlot. Walker reservations also enforce the
// no-two-walks-at-once rule (ErrScheduleConflict) before the per-slot
// counter, and increment the walker's capacity_current. On any failure
// nothing is mutated.
func (l *Ledger) Reserve(tx *gorm.DB, serviceType models.ServiceType, providerID uint, date, timeSlot string) error {
	if serviceType == models.ServiceWalker {
		// A walker physically cannot run two walks in the same slot,
		// independent of how high their capacity is configured.
		busy, err := l.activeCount(tx, serviceType, providerID, date, timeSlot,
			[]models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusInProgress})
		if err != nil {
			return err
		}
		if busy > 0 {
			return ErrScheduleConflict
		}
	}

	limit, err := l.capacityLimit(tx, serviceType, providerID)
	if err != nil {
		return err
	}

	count, err := l.activeCount(tx, serviceType, providerID, date, timeSlot, models.ActiveBookingStatuses())
	if err != nil {
		return err
	}
	if count >= limit {
		return ErrCapacityExceeded
	}

	if serviceType == models.ServiceWalker {
		err := tx.Model(&models.WalkerProfile{}).
			Where("id = ?", providerID).
			UpdateColumn("capacity_current", gorm.Expr("capacity_current + 1")).Error
		if err != nil {
			return fmt.Errorf("increment walker capacity: %w", err)
		}
	}
	return nil
}

// ReleaseWalkerSlot decrements a walker's live capacity counter when a
// booking finishes or is cancelled. Floored at zero.
func (l *Ledger) ReleaseWalkerSlot(providerID uint) error {
	return l.db.Model(&models.WalkerProfile{}).
		Where("id = ? AND capacity_current > 0", providerID).
		UpdateColumn("capacity_current", gorm.Expr("capacity_current - 1")).Error
}

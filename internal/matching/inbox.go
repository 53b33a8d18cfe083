package matching

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pettrust/pettrust-backend/internal/models"
	"gorm.io/gorm"
)

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// Inbox is the per-provider mailbox of pending service requests. It owns
// fan-out (Deliver), the provider-facing listing, and Respond, the
// entry point of the acceptance chain.
type Inbox struct {
	db       *gorm.DB
	registry *Registry
	ledger   *Ledger
	factory  *Factory
}

func NewInbox(db *gorm.DB, registry *Registry, ledger *Ledger, factory *Factory) *Inbox {
	return &Inbox{db: db, registry: registry, ledger: ledger, factory: factory}
}

// EntrySnapshot is the display data denormalized into every entry at
// delivery time. It is never re-derived, so a provider's inbox view is
// stable even if the pet or owner profile changes later.
type EntrySnapshot struct {
	PetName   string
	PetBreed  string
	PetPhoto  string
	OwnerName string
}

// DeliveryItem is one matched provider's slice of the fan-out.
type DeliveryItem struct {
	ProviderID uint
	DistanceKm float64
	Earnings   float64
}

// Deliver creates one inbox entry per matched provider. All entries land
// in one transaction; the unique (provider, request) index makes
// double-delivery impossible.
func (ib *Inbox) Deliver(request *models.ServiceRequest, snapshot EntrySnapshot, items []DeliveryItem) ([]models.InboxEntry, error) {
	entries := make([]models.InboxEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, models.InboxEntry{
			ProviderID:    item.ProviderID,
			ProviderType:  request.ServiceType,
			RequestID:     request.ID,
			PetName:       snapshot.PetName,
			PetBreed:      snapshot.PetBreed,
			PetPhoto:      snapshot.PetPhoto,
			OwnerName:     snapshot.OwnerName,
			RequestedDate: request.RequestedDate,
			RequestedTime: request.RequestedTime,
			DistanceKm:    item.DistanceKm,
			Earnings:      item.Earnings,
		})
	}
	if len(entries) == 0 {
		return entries, nil
	}

	if err := ib.db.Create(&entries).Error; err != nil {
		return nil, fmt.Errorf("deliver request %d: %w", request.ID, err)
	}
	return entries, nil
}

// PendingEntry is an inbox entry with the live countdown computed from
// the parent request's expiry.
type PendingEntry struct {
	models.InboxEntry
	ExpiresInSeconds int64 `json:"expiresInSeconds"`
	IsExpired        bool  `json:"isExpired"`
}

// ListPending returns the provider's open entries, newest first. Entries
// whose parent request has left pending are excluded; requests observed
// past their TTL are expired on the spot and their entries dismissed
// (last appearance flagged IsExpired).
func (ib *Inbox) ListPending(providerID uint, providerType models.ServiceType) ([]PendingEntry, error) {
	var entries []models.InboxEntry
	err := ib.db.Preload("Request").
		Where("provider_id = ? AND provider_type = ? AND is_dismissed = ?", providerID, providerType, false).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list inbox for provider %d: %w", providerID, err)
	}

	now := time.Now()
	out := make([]PendingEntry, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		if entry.Request == nil || entry.Request.Status != models.RequestStatusPending {
			continue
		}

		if entry.Request.ExpiredAt(now) {
			if _, err := ib.registry.MarkExpiredIfDue(entry.Request); err != nil {
				return nil, err
			}
			if err := ib.dismissEntriesForRequest(ib.db, entry.RequestID); err != nil {
				return nil, err
			}
			out = append(out, PendingEntry{InboxEntry: entry, ExpiresInSeconds: 0, IsExpired: true})
			continue
		}

		out = append(out, PendingEntry{
			InboxEntry:       entry,
			ExpiresInSeconds: int64(entry.Request.ExpiresAt.Sub(now).Seconds()),
			IsExpired:        false,
		})
	}
	return out, nil
}

// MarkRead flags an entry as seen by its provider.
func (ib *Inbox) MarkRead(entryID, providerID uint) error {
	entry, err := ib.getOwnedEntry(entryID, providerID)
	if err != nil {
		return err
	}
	if entry.IsRead {
		return nil
	}
	return ib.db.Model(entry).Update("is_read", true).Error
}

// RespondResult carries everything a Respond call produced: the updated
// entry, the request's final state, and the booking when one was created.
type RespondResult struct {
	Entry   *models.InboxEntry     `json:"entry"`
	Request *models.ServiceRequest `json:"request,omitempty"`
	Booking *models.Booking        `json:"booking,omitempty"`
}

// Respond handles a provider's accept or reject of an inbox entry.
//
// Reject dismisses only this provider's entry; the request stays
// claimable by everyone else. Rejecting an entry that was already
// dismissed because another provider won reports ErrAlreadyClaimed so
// the client can distinguish "I declined" from "someone beat me to it".
//
// Accept runs the full chain: registry.TryAccept, capacity reservation
// (which includes the walker schedule-conflict rule), booking creation,
// and the fan-in dismissal of every entry for the request, with a
// compensating rollback to pending if anything after the acceptance
// fails.
func (ib *Inbox) Respond(entryID, providerID uint, action string) (*RespondResult, error) {
	entry, err := ib.getOwnedEntry(entryID, providerID)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionReject:
		return ib.reject(entry, providerID)
	case ActionAccept:
		return ib.accept(entry, providerID)
	default:
		return nil, fmt.Errorf("unknown inbox action %q", action)
	}
}

func (ib *Inbox) getOwnedEntry(entryID, providerID uint) (*models.InboxEntry, error) {
	var entry models.InboxEntry
	if err := ib.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if entry.ProviderID != providerID {
		return nil, ErrUnauthorized
	}
	return &entry, nil
}

func (ib *Inbox) reject(entry *models.InboxEntry, providerID uint) (*RespondResult, error) {
	request, err := ib.registry.Get(entry.RequestID)
	if err != nil {
		return nil, err
	}

	if entry.IsDismissed {
		// Re-rejecting an entry this provider already declined is a
		// harmless no-op; an entry dismissed because somebody else won
		// must say so.
		if request.Status == models.RequestStatusAccepted &&
			(request.AcceptedBy == nil || *request.AcceptedBy != providerID) {
			return nil, ErrAlreadyClaimed
		}
		return &RespondResult{Entry: entry, Request: request}, nil
	}

	now := time.Now()
	err = ib.db.Model(entry).Updates(map[string]interface{}{
		"is_dismissed": true,
		"responded_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("dismiss entry %d: %w", entry.ID, err)
	}
	entry.IsDismissed = true
	entry.RespondedAt = &now

	return &RespondResult{Entry: entry, Request: request}, nil
}

func (ib *Inbox) accept(entry *models.InboxEntry, providerID uint) (*RespondResult, error) {
	request, err := ib.registry.TryAccept(entry.RequestID, providerID)
	if err != nil {
		if errors.Is(err, ErrExpired) {
			// The request just died; tidy the fan-out.
			if dErr := ib.dismissEntriesForRequest(ib.db, entry.RequestID); dErr != nil {
				log.Printf("Dismiss entries for expired request %d failed: %v", entry.RequestID, dErr)
			}
		}
		return nil, err
	}

	if request.BookingID != nil {
		// Re-submitted accept from the winner: return the existing
		// booking, never create a second one.
		var booking models.Booking
		if err := ib.db.First(&booking, *request.BookingID).Error; err != nil {
			return nil, err
		}
		return &RespondResult{Entry: entry, Request: request, Booking: &booking}, nil
	}

	// The slot lock spans the whole transaction so a concurrent
	// reservation for the same provider slot cannot count this booking
	// as absent before it commits.
	unlock := ib.ledger.LockSlot(request.ServiceType, providerID, request.RequestedDate, request.RequestedTime)
	defer unlock()

	var booking *models.Booking
	now := time.Now()
	txErr := ib.db.Transaction(func(tx *gorm.DB) error {
		if err := ib.ledger.Reserve(tx, request.ServiceType, providerID, request.RequestedDate, request.RequestedTime); err != nil {
			return err
		}

		var err error
		booking, err = ib.factory.Create(tx, request, entry)
		if err != nil {
			return err
		}

		if err := ib.registry.SetBooking(tx, request.ID, booking.ID); err != nil {
			return err
		}

		if err := ib.dismissEntriesForRequest(tx, request.ID); err != nil {
			return err
		}

		return tx.Model(&models.InboxEntry{}).
			Where("id = ?", entry.ID).
			Updates(map[string]interface{}{"responded_at": now, "is_read": true}).Error
	})
	if txErr != nil {
		// Compensating transition: give the request back to the field.
		if relErr := ib.registry.Release(request.ID, providerID); relErr != nil {
			return nil, fmt.Errorf("rollback after failed acceptance: %v (original: %w)", relErr, txErr)
		}
		return nil, txErr
	}

	request.BookingID = &booking.ID
	entry.IsDismissed = true
	entry.IsRead = true
	entry.RespondedAt = &now

	return &RespondResult{Entry: entry, Request: request, Booking: booking}, nil
}

func (ib *Inbox) dismissEntriesForRequest(tx *gorm.DB, requestID uint) error {
	return tx.Model(&models.InboxEntry{}).
		Where("request_id = ? AND is_dismissed = ?", requestID, false).
		Update("is_dismissed", true).Error
}

package matching

import (
	"fmt"
	"time"

	"github.com/pettrust/pettrust-backend/internal/models"
	"gorm.io/gorm"
)

// RequestTTL is how long a service request remains claimable.
const RequestTTL = 15 * time.Minute

// Registry owns the ServiceRequest lifecycle. All status transitions go
// through it: creation, the accept race, lazy expiry, and the
// compensating rollback after a failed downstream commit.
//
// TryAccept is serialized per request id with an in-process lock on top
// of a conditional UPDATE, so two providers racing for the same request
// yield exactly one winner.
type Registry struct {
	db    *gorm.DB
	locks *keyedMutex
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db, locks: newKeyedMutex()}
}

func requestKey(requestID uint) string {
	return fmt.Sprintf("request:%d", requestID)
}

// CreateInput carries everything the registry persists at creation time.
// MatchedProviders is the frozen output of the geo index.
type CreateInput struct {
	OwnerID          uint
	PetID            uint
	PetName          string
	PetBreed         string
	ServiceType      models.ServiceType
	Date             string
	Time             string
	RequiresPickup   bool
	PickupAddress    string
	OwnerLat         float64
	OwnerLng         float64
	MatchedProviders []uint
}

// Create persists a new pending request with a fixed TTL.
func (r *Registry) Create(input CreateInput) (*models.ServiceRequest, error) {
	request := &models.ServiceRequest{
		OwnerID:        input.OwnerID,
		PetID:          input.PetID,
		PetName:        input.PetName,
		PetBreed:       input.PetBreed,
		ServiceType:    input.ServiceType,
		RequestedDate:  input.Date,
		RequestedTime:  input.Time,
		RequiresPickup: input.RequiresPickup,
		PickupAddress:  input.PickupAddress,
		OwnerLat:       input.OwnerLat,
		OwnerLng:       input.OwnerLng,
		Status:         models.RequestStatusPending,
		ExpiresAt:      time.Now().Add(RequestTTL),
	}
	request.SetMatchedProviders(input.MatchedProviders)

	if err := r.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("create service request: %w", err)
	}
	return request, nil
}

// Get loads a request, applying lazy expiry: a pending request past its
// TTL is transitioned to expired before it is returned.
func (r *Registry) Get(requestID uint) (*models.ServiceRequest, error) {
	var request models.ServiceRequest
	if err := r.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := r.MarkExpiredIfDue(&request); err != nil {
		return nil, err
	}
	return &request, nil
}

// MarkExpiredIfDue transitions a pending request past its TTL to the
// expired state. The conditional update keeps it safe against a
// concurrent acceptance: whoever flips the status first wins.
func (r *Registry) MarkExpiredIfDue(request *models.ServiceRequest) (bool, error) {
	if request.Status != models.RequestStatusPending || !request.ExpiredAt(time.Now()) {
		return false, nil
	}

	res := r.db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", request.ID, models.RequestStatusPending).
		Update("status", models.RequestStatusExpired)
	if res.Error != nil {
		return false, fmt.Errorf("expire request %d: %w", request.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race to an acceptance or another expirer; reload.
		if err := r.db.First(request, request.ID).Error; err != nil {
			return false, err
		}
		return request.Status == models.RequestStatusExpired, nil
	}

	request.Status = models.RequestStatusExpired
	return true, nil
}

// TryAccept is the core race point: it atomically claims a pending,
// unexpired request for a matched provider. Exactly one of N concurrent
// callers succeeds; the rest see ErrAlreadyClaimed. A repeat call by the
// winning provider is a no-op returning the accepted request.
func (r *Registry) TryAccept(requestID, providerID uint) (*models.ServiceRequest, error) {
	unlock := r.locks.Lock(requestKey(requestID))
	defer unlock()

	var request models.ServiceRequest
	if err := r.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch request.Status {
	case models.RequestStatusAccepted:
		if request.AcceptedBy != nil && *request.AcceptedBy == providerID {
			return &request, nil
		}
		return nil, ErrAlreadyClaimed
	case models.RequestStatusExpired:
		return nil, ErrExpired
	}

	now := time.Now()
	if request.ExpiredAt(now) {
		if _, err := r.MarkExpiredIfDue(&request); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	if !request.IsMatchedProvider(providerID) {
		return nil, ErrNotMatched
	}

	res := r.db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":      models.RequestStatusAccepted,
			"accepted_by": providerID,
			"accepted_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("accept request %d: %w", requestID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Someone else transitioned the request between our read and the
		// conditional update.
		if err := r.db.First(&request, requestID).Error; err != nil {
			return nil, err
		}
		if request.Status == models.RequestStatusExpired {
			return nil, ErrExpired
		}
		if request.AcceptedBy != nil && *request.AcceptedBy == providerID {
			return &request, nil
		}
		return nil, ErrAlreadyClaimed
	}

	request.Status = models.RequestStatusAccepted
	request.AcceptedBy = &providerID
	request.AcceptedAt = &now
	return &request, nil
}

// Release is the compensating rollback: when a downstream step after a
// won acceptance fails (capacity, schedule conflict, booking persist),
// the request returns to pending so another provider can still claim it
// before expiry. If the TTL has lapsed in the meantime the request is
// marked expired instead.
func (r *Registry) Release(requestID, providerID uint) error {
	unlock := r.locks.Lock(requestKey(requestID))
	defer unlock()

	var request models.ServiceRequest
	if err := r.db.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}

	if request.Status != models.RequestStatusAccepted ||
		request.AcceptedBy == nil || *request.AcceptedBy != providerID {
		return nil
	}

	status := models.RequestStatusPending
	if request.ExpiredAt(time.Now()) {
		status = models.RequestStatusExpired
	}

	res := r.db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ? AND accepted_by = ?",
			requestID, models.RequestStatusAccepted, providerID).
		Updates(map[string]interface{}{
			"status":      status,
			"accepted_by": nil,
			"accepted_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("release request %d: %w", requestID, res.Error)
	}
	return nil
}

// SetBooking records the booking created from an accepted request.
// Called inside the acceptance transaction.
func (r *Registry) SetBooking(tx *gorm.DB, requestID, bookingID uint) error {
	return tx.Model(&models.ServiceRequest{}).
		Where("id = ?", requestID).
		Update("booking_id", bookingID).Error
}

// SweepExpired proactively expires overdue pending requests and
// dismisses their inbox entries. Lazy expiry alone is sufficient for
// correctness; the sweep just keeps listings tidy.
func (r *Registry) SweepExpired() (int64, error) {
	now := time.Now()
	res := r.db.Model(&models.ServiceRequest{}).
		Where("status = ? AND expires_at < ?", models.RequestStatusPending, now).
		Update("status", models.RequestStatusExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		err := r.db.Model(&models.InboxEntry{}).
			Where("is_dismissed = ? AND request_id IN (?)", false,
				r.db.Model(&models.ServiceRequest{}).Select("id").
					Where("status = ?", models.RequestStatusExpired),
			).
			Update("is_dismissed", true).Error
		if err != nil {
			return res.RowsAffected, err
		}
	}
	return res.RowsAffected, nil
}

package matching

import (
	"fmt"
	"time"

	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/pkg/utils"
	"gorm.io/gorm"
)

// Factory converts a won acceptance into a persisted Booking. Pure
// construction plus a single insert in the caller's transaction: either
// the booking lands fully or not at all. The price comes from the inbox
// entry's earnings snapshot, never from current provider rates.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(tx *gorm.DB, request *models.ServiceRequest, entry *models.InboxEntry) (*models.Booking, error) {
	if request.AcceptedAt == nil {
		return nil, fmt.Errorf("request %d has no acceptance timestamp", request.ID)
	}

	booking := &models.Booking{
		OwnerID:        request.OwnerID,
		PetID:          request.PetID,
		PetName:        request.PetName,
		ServiceType:    request.ServiceType,
		ProviderID:     entry.ProviderID,
		RequestID:      request.ID,
		Date:           request.RequestedDate,
		Time:           request.RequestedTime,
		RequiresPickup: request.RequiresPickup,
		PickupAddress:  request.PickupAddress,
		Status:         models.BookingStatusConfirmed,
		Price:          entry.Earnings,
		PaymentStatus:  models.PaymentStatusPending,
		MeetingPIN: utils.GenerateMeetingPIN(
			fmt.Sprintf("%d-%d-%d", request.ID, entry.ProviderID, request.AcceptedAt.UnixNano())),
	}

	if err := tx.Create(booking).Error; err != nil {
		return nil, fmt.Errorf("create booking for request %d: %w", request.ID, err)
	}
	return booking, nil
}

// MeetingVerified stamps the booking once the owner-held PIN has been
// confirmed at handoff.
func (f *Factory) MeetingVerified(tx *gorm.DB, bookingID uint) error {
	now := time.Now()
	return tx.Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("meeting_verified_at", now).Error
}

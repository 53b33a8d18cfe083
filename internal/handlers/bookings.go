package handlers

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pettrust/pettrust-backend/internal/matching"
	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/internal/services"
	"gorm.io/gorm"
)

// GetOwnerBookings lists the authenticated owner's bookings
func GetOwnerBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")

		var bookings []models.Booking
		if err := db.Preload("Pet").Where("owner_id = ?", ownerID).
			Order("created_at DESC").Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load bookings"})
			return
		}

		c.JSON(200, gin.H{"bookings": bookings})
	}
}

// GetProviderBookings lists the authenticated provider's bookings
func GetProviderBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}

		var bookings []models.Booking
		if err := db.Preload("Pet").Preload("Owner").
			Where("provider_id = ? AND service_type = ?", provider.ProviderID(), serviceType).
			Order("date DESC, time DESC").Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load bookings"})
			return
		}

		c.JSON(200, gin.H{"bookings": bookings})
	}
}

// GetBooking returns one booking. The owner additionally gets the
// meeting PIN to show at handoff; the provider never sees it here.
func GetBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")

		booking, ok := bookingForParty(c, db, userID, role)
		if !ok {
			return
		}

		response := gin.H{"booking": booking}
		if booking.OwnerID == userID {
			response["meetingPin"] = booking.MeetingPIN
		}

		c.JSON(200, response)
	}
}

// StartBooking moves a confirmed booking to in_progress. Provider only.
func StartBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}

		booking, ok := providerBooking(c, db, provider.ProviderID(), serviceType)
		if !ok {
			return
		}

		if booking.Status != models.BookingStatusConfirmed {
			c.JSON(409, gin.H{"error": fmt.Sprintf("Cannot start a %s booking", booking.Status)})
			return
		}

		if err := db.Model(booking).Update("status", models.BookingStatusInProgress).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to start booking"})
			return
		}
		booking.Status = models.BookingStatusInProgress

		publishBookingStatus(c, hub, booking)
		c.JSON(200, gin.H{"booking": booking})
	}
}

// CompleteBooking finishes an in_progress booking and gives the walker's
// slot back.
func CompleteBooking(db *gorm.DB, hub *services.Hub, ledger *matching.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}

		booking, ok := providerBooking(c, db, provider.ProviderID(), serviceType)
		if !ok {
			return
		}

		if booking.Status != models.BookingStatusInProgress {
			c.JSON(409, gin.H{"error": fmt.Sprintf("Cannot complete a %s booking", booking.Status)})
			return
		}

		if err := db.Model(booking).Update("status", models.BookingStatusCompleted).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to complete booking"})
			return
		}
		booking.Status = models.BookingStatusCompleted

		if serviceType == models.ServiceWalker {
			if err := ledger.ReleaseWalkerSlot(provider.ProviderID()); err != nil {
				log.Printf("Release walker slot for provider %d failed: %v", provider.ProviderID(), err)
			}
		}

		publishBookingStatus(c, hub, booking)
		c.JSON(200, gin.H{"booking": booking})
	}
}

// CancelBooking lets the owner cancel before the service starts.
func CancelBooking(db *gorm.DB, hub *services.Hub, ledger *matching.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")

		bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking id"})
			return
		}

		var booking models.Booking
		if err := db.First(&booking, bookingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}
		if booking.OwnerID != ownerID {
			c.JSON(403, gin.H{"error": "Not your booking"})
			return
		}

		if booking.Status != models.BookingStatusConfirmed && booking.Status != models.BookingStatusPending {
			c.JSON(409, gin.H{"error": fmt.Sprintf("Cannot cancel a %s booking", booking.Status)})
			return
		}

		if err := db.Model(&booking).Update("status", models.BookingStatusCancelled).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to cancel booking"})
			return
		}
		booking.Status = models.BookingStatusCancelled

		if booking.ServiceType == models.ServiceWalker {
			if err := ledger.ReleaseWalkerSlot(booking.ProviderID); err != nil {
				log.Printf("Release walker slot for provider %d failed: %v", booking.ProviderID, err)
			}
		}

		publishBookingStatus(c, hub, &booking)
		c.JSON(200, gin.H{"booking": booking})
	}
}

// PayBooking marks a booking as paid. Payment collection itself happens
// out of band; this records the reference.
func PayBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")

		bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking id"})
			return
		}

		var booking models.Booking
		if err := db.First(&booking, bookingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}
		if booking.OwnerID != ownerID {
			c.JSON(403, gin.H{"error": "Not your booking"})
			return
		}
		if booking.PaymentStatus == models.PaymentStatusPaid {
			c.JSON(200, gin.H{"booking": booking})
			return
		}

		var input struct {
			PaymentID string `json:"paymentId"`
		}
		// Body is optional; a missing paymentId gets a generated reference
		_ = c.ShouldBindJSON(&input)
		if input.PaymentID == "" {
			input.PaymentID = uuid.NewString()
		}

		err = db.Model(&booking).Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"payment_id":     input.PaymentID,
		}).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to record payment"})
			return
		}
		booking.PaymentStatus = models.PaymentStatusPaid
		booking.PaymentID = input.PaymentID

		c.JSON(200, gin.H{"booking": booking})
	}
}

// bookingForParty loads the booking and checks the caller is either its
// owner or its provider.
func bookingForParty(c *gin.Context, db *gorm.DB, userID uint, role string) (*models.Booking, bool) {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid booking id"})
		return nil, false
	}

	var booking models.Booking
	if err := db.Preload("Pet").First(&booking, bookingID).Error; err != nil {
		c.JSON(404, gin.H{"error": "Booking not found"})
		return nil, false
	}

	if !isBookingParty(db, &booking, userID, role) {
		c.JSON(403, gin.H{"error": "Not your booking"})
		return nil, false
	}
	return &booking, true
}

// isBookingParty reports whether the user is the booking's owner or its
// provider.
func isBookingParty(db *gorm.DB, booking *models.Booking, userID uint, role string) bool {
	if booking.OwnerID == userID {
		return true
	}
	if serviceType, ok := serviceTypeForRole(role); ok && serviceType == booking.ServiceType {
		if provider, err := providerForUser(db, serviceType, userID); err == nil && provider.ProviderID() == booking.ProviderID {
			return true
		}
	}
	return false
}

func providerBooking(c *gin.Context, db *gorm.DB, providerID uint, serviceType models.ServiceType) (*models.Booking, bool) {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid booking id"})
		return nil, false
	}

	var booking models.Booking
	if err := db.First(&booking, bookingID).Error; err != nil {
		c.JSON(404, gin.H{"error": "Booking not found"})
		return nil, false
	}
	if booking.ProviderID != providerID || booking.ServiceType != serviceType {
		c.JSON(403, gin.H{"error": "Not your booking"})
		return nil, false
	}
	return &booking, true
}

func publishBookingStatus(c *gin.Context, hub *services.Hub, booking *models.Booking) {
	if err := services.PublishBookingUpdate(c.Request.Context(), booking.ID, string(booking.Status), map[string]interface{}{
		"ownerId":    booking.OwnerID,
		"providerId": booking.ProviderID,
		"at":         time.Now().Unix(),
	}); err != nil {
		log.Printf("Publish booking update failed: %v", err)
	}
	hub.BroadcastToUser(booking.OwnerID, []byte(fmt.Sprintf(`{"type":"booking_status","data":{"bookingId":%d,"status":%q}}`, booking.ID, booking.Status)))
}

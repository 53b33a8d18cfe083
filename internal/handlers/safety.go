package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pettrust/pettrust-backend/internal/matching"
	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/internal/services"
	"github.com/pettrust/pettrust-backend/pkg/utils"
	"gorm.io/gorm"
)

// RaiseSOS creates an SOS alert on an active booking and pushes it to
// the counterparty immediately.
func RaiseSOS(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")

		booking, ok := bookingForParty(c, db, userID, role)
		if !ok {
			return
		}
		if booking.Status != models.BookingStatusConfirmed && booking.Status != models.BookingStatusInProgress {
			c.JSON(409, gin.H{"error": "Booking is not active"})
			return
		}

		var input struct {
			Lat     float64 `json:"lat"`
			Lng     float64 `json:"lng"`
			Message string  `json:"message"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		alert := models.SOSAlert{
			BookingID: booking.ID,
			RaisedBy:  userID,
			Latitude:  input.Lat,
			Longitude: input.Lng,
			Message:   input.Message,
			Status:    models.SOSStatusOpen,
		}
		if err := db.Create(&alert).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to raise alert"})
			return
		}

		counterpartID := sosCounterpart(db, booking, userID)
		if counterpartID != 0 {
			hub.SendSOS(counterpartID, services.SOSRaised{
				BookingID: booking.ID,
				RaisedBy:  userID,
				Lat:       input.Lat,
				Lng:       input.Lng,
				Message:   input.Message,
			})

			var counterpart models.User
			if err := db.First(&counterpart, counterpartID).Error; err == nil && counterpart.FCMToken != "" {
				if err := services.SendSOSNotification(c.Request.Context(), counterpart.FCMToken, booking.ID, input.Message); err != nil {
					log.Printf("FCM SOS to user %d failed: %v", counterpartID, err)
				}
			}
		}

		c.JSON(201, gin.H{"alert": alert})
	}
}

// sosCounterpart resolves the other party's user id for a booking.
func sosCounterpart(db *gorm.DB, booking *models.Booking, raisedBy uint) uint {
	if booking.OwnerID != raisedBy {
		return booking.OwnerID
	}
	provider, err := providerByID(db, booking.ServiceType, booking.ProviderID)
	if err != nil {
		return 0
	}
	return provider.ProviderUserID()
}

// ResolveSOS closes an open alert. Either party of the booking can do it.
func ResolveSOS(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")

		alertID, err := strconv.ParseUint(c.Param("alertId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid alert id"})
			return
		}

		var alert models.SOSAlert
		if err := db.First(&alert, alertID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Alert not found"})
			return
		}

		var booking models.Booking
		if err := db.First(&booking, alert.BookingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}
		if !isBookingParty(db, &booking, userID, role) {
			c.JSON(403, gin.H{"error": "Not your booking"})
			return
		}

		if err := db.Model(&alert).Update("status", models.SOSStatusResolved).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to resolve alert"})
			return
		}
		alert.Status = models.SOSStatusResolved

		c.JSON(200, gin.H{"alert": alert})
	}
}

// CreateCheckIn records a walker's "all good" ping, with an optional
// photo attached as multipart form data.
func CreateCheckIn(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}
		if serviceType != models.ServiceWalker {
			c.JSON(403, gin.H{"error": "Only walkers check in"})
			return
		}

		booking, ok := providerBooking(c, db, provider.ProviderID(), serviceType)
		if !ok {
			return
		}
		if booking.Status != models.BookingStatusInProgress {
			c.JSON(409, gin.H{"error": "Booking is not in progress"})
			return
		}

		lat, err1 := strconv.ParseFloat(c.PostForm("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.PostForm("lng"), 64)
		if err1 != nil || err2 != nil || !utils.ValidCoordinates(lat, lng) {
			c.JSON(400, gin.H{"error": "Valid lat and lng form fields required"})
			return
		}

		checkIn := models.CheckIn{
			BookingID: booking.ID,
			WalkerID:  provider.ProviderID(),
			Latitude:  lat,
			Longitude: lng,
			Note:      c.PostForm("note"),
		}

		if file, err := c.FormFile("photo"); err == nil {
			url, err := uploadPhoto(file, services.FolderCheckins)
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to upload photo"})
				return
			}
			checkIn.PhotoURL = url
		}

		if err := db.Create(&checkIn).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save check-in"})
			return
		}

		c.JSON(201, gin.H{"checkIn": checkIn})
	}
}

// GetCheckIns lists the check-ins of a booking for either party
func GetCheckIns(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")

		booking, ok := bookingForParty(c, db, userID, role)
		if !ok {
			return
		}

		var checkIns []models.CheckIn
		if err := db.Where("booking_id = ?", booking.ID).
			Order("created_at ASC").Find(&checkIns).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load check-ins"})
			return
		}

		c.JSON(200, gin.H{"checkIns": checkIns})
	}
}

// VerifyMeetingPIN confirms the owner-held handoff code. Provider only;
// stamps the booking on the first correct attempt.
func VerifyMeetingPIN(db *gorm.DB, factory *matching.Factory) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}

		booking, ok := providerBooking(c, db, provider.ProviderID(), serviceType)
		if !ok {
			return
		}

		var input struct {
			Pin string `json:"pin" binding:"required,len=4"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.Pin != booking.MeetingPIN {
			c.JSON(401, gin.H{"error": "Incorrect PIN"})
			return
		}

		if booking.MeetingVerifiedAt == nil {
			if err := factory.MeetingVerified(db, booking.ID); err != nil {
				c.JSON(500, gin.H{"error": "Failed to record verification"})
				return
			}
		}

		c.JSON(200, gin.H{"verified": true})
	}
}

// CreateTripShare mints a public, expiring token the owner can hand to
// family to follow the walk.
func CreateTripShare(db *gorm.DB) gin.HandlerFunc {
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

		share := models.TripShare{
			BookingID: booking.ID,
			OwnerID:   ownerID,
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(24 * time.Hour),
		}
		if err := db.Create(&share).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create share link"})
			return
		}

		c.JSON(201, gin.H{"token": share.Token, "expiresAt": share.ExpiresAt})
	}
}

// GetSharedTrip is the unauthenticated view behind a trip-share token:
// booking status plus the latest known position.
func GetSharedTrip(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		var share models.TripShare
		if err := db.Where("token = ?", token).First(&share).Error; err != nil {
			c.JSON(404, gin.H{"error": "Share link not found"})
			return
		}
		if time.Now().After(share.ExpiresAt) {
			c.JSON(410, gin.H{"error": "Share link has expired"})
			return
		}

		var booking models.Booking
		if err := db.First(&booking, share.BookingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		response := gin.H{
			"petName": booking.PetName,
			"status":  booking.Status,
			"date":    booking.Date,
		}

		lat, lng, err := services.GetTripPosition(c.Request.Context(), booking.ID)
		if err != nil {
			// Cache miss: fall back to the last persisted breadcrumb
			var point models.TrackingPoint
			if dbErr := db.Where("booking_id = ?", booking.ID).
				Order("created_at DESC").First(&point).Error; dbErr == nil {
				lat, lng = point.Latitude, point.Longitude
				err = nil
			}
		}
		if err == nil {
			response["position"] = gin.H{"lat": lat, "lng": lng}
		}

		c.JSON(200, response)
	}
}

package handlers

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/internal/services"
	"github.com/pettrust/pettrust-backend/pkg/utils"
	"gorm.io/gorm"
)

type WellnessReportInput struct {
	Ate       bool     `json:"ate"`
	Bathroom  bool     `json:"bathroom"`
	Mood      string   `json:"mood" binding:"required,oneof=happy calm tired anxious"`
	Notes     string   `json:"notes"`
	PhotoURLs []string `json:"photoUrls"`
}

// CreateWellnessReport records the walker's end-of-service summary
func CreateWellnessReport(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}
		if serviceType != models.ServiceWalker {
			c.JSON(403, gin.H{"error": "Only walkers file wellness reports"})
			return
		}

		booking, ok := providerBooking(c, db, provider.ProviderID(), serviceType)
		if !ok {
			return
		}
		if booking.Status != models.BookingStatusInProgress && booking.Status != models.BookingStatusCompleted {
			c.JSON(409, gin.H{"error": "Booking has not started"})
			return
		}

		var input WellnessReportInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		photos, _ := json.Marshal(input.PhotoURLs)
		report := models.WellnessReport{
			BookingID: booking.ID,
			WalkerID:  provider.ProviderID(),
			PetID:     booking.PetID,
			Ate:       input.Ate,
			Bathroom:  input.Bathroom,
			Mood:      input.Mood,
			Notes:     input.Notes,
			PhotoURLs: string(photos),
		}

		if err := db.Create(&report).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save report"})
			return
		}

		c.JSON(201, gin.H{"report": report})
	}
}

// GetWellnessReport returns the report for a booking the caller is party to
func GetWellnessReport(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")

		booking, ok := bookingForParty(c, db, userID, role)
		if !ok {
			return
		}

		var report models.WellnessReport
		if err := db.Where("booking_id = ?", booking.ID).First(&report).Error; err != nil {
			c.JSON(404, gin.H{"error": "No report for this booking yet"})
			return
		}

		c.JSON(200, gin.H{"report": report})
	}
}

// AddTrackingPoint records a GPS breadcrumb during an in_progress walk
// and pushes it live to the owner.
func AddTrackingPoint(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}
		if serviceType != models.ServiceWalker {
			c.JSON(403, gin.H{"error": "Only walkers report positions"})
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

		var input struct {
			Lat float64 `json:"lat" binding:"required"`
			Lng float64 `json:"lng" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if !utils.ValidCoordinates(input.Lat, input.Lng) {
			c.JSON(400, gin.H{"error": "Invalid coordinates"})
			return
		}

		point := models.TrackingPoint{
			BookingID: booking.ID,
			WalkerID:  provider.ProviderID(),
			Latitude:  input.Lat,
			Longitude: input.Lng,
		}
		if err := db.Create(&point).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save position"})
			return
		}

		if err := services.CacheTripPosition(c.Request.Context(), booking.ID, input.Lat, input.Lng); err != nil {
			log.Printf("Cache trip position for booking %d failed: %v", booking.ID, err)
		}

		hub.SendWalkPosition(booking.OwnerID, services.WalkPosition{
			BookingID: booking.ID,
			Lat:       input.Lat,
			Lng:       input.Lng,
		})

		c.JSON(201, gin.H{"point": point})
	}
}

// GetTrackingPoints returns the breadcrumb trail of a booking
func GetTrackingPoints(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")

		booking, ok := bookingForParty(c, db, userID, role)
		if !ok {
			return
		}

		limit := 200
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 1000 {
				limit = parsed
			}
		}

		var points []models.TrackingPoint
		if err := db.Where("booking_id = ?", booking.ID).
			Order("created_at ASC").Limit(limit).Find(&points).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load positions"})
			return
		}

		c.JSON(200, gin.H{"points": points})
	}
}

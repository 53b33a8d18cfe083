package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/pettrust/pettrust-backend/internal/models"
	"gorm.io/gorm"
)

type ReviewInput struct {
	BookingID uint   `json:"bookingId" binding:"required"`
	Rating    int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment   string `json:"comment"`
}

// CreateReview records an owner's rating of a completed booking and
// re-aggregates the provider's rating.
func CreateReview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")

		var input ReviewInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var booking models.Booking
		if err := db.First(&booking, input.BookingID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}
		if booking.OwnerID != ownerID {
			c.JSON(403, gin.H{"error": "Not your booking"})
			return
		}
		if booking.Status != models.BookingStatusCompleted {
			c.JSON(409, gin.H{"error": "Only completed bookings can be reviewed"})
			return
		}

		var existing models.Review
		if err := db.Where("booking_id = ?", booking.ID).First(&existing).Error; err == nil {
			c.JSON(409, gin.H{"error": "Booking already reviewed"})
			return
		}

		review := models.Review{
			BookingID:   booking.ID,
			OwnerID:     ownerID,
			ServiceType: booking.ServiceType,
			ProviderID:  booking.ProviderID,
			Rating:      input.Rating,
			Comment:     input.Comment,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
			return reaggregateRating(tx, booking.ServiceType, booking.ProviderID)
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to save review"})
			return
		}

		c.JSON(201, gin.H{"review": review})
	}
}

// reaggregateRating recomputes a provider's average rating and review
// count from the reviews table.
func reaggregateRating(tx *gorm.DB, serviceType models.ServiceType, providerID uint) error {
	var agg struct {
		Avg   float64
		Count int64
	}
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 5) AS avg, COUNT(*) AS count").
		Where("service_type = ? AND provider_id = ?", serviceType, providerID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"rating":        agg.Avg,
		"reviews_count": agg.Count,
	}

	switch serviceType {
	case models.ServiceWalker:
		return tx.Model(&models.WalkerProfile{}).Where("id = ?", providerID).Updates(updates).Error
	case models.ServiceDaycare:
		return tx.Model(&models.DaycareProfile{}).Where("id = ?", providerID).Updates(updates).Error
	default:
		return tx.Model(&models.VetProfile{}).Where("id = ?", providerID).Updates(updates).Error
	}
}

package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pettrust/pettrust-backend/internal/matching"
	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/internal/services"
	"github.com/pettrust/pettrust-backend/pkg/utils"
	"gorm.io/gorm"
)

type CreateRequestInput struct {
	PetID          uint    `json:"petId" binding:"required"`
	ServiceType    string  `json:"serviceType" binding:"required,oneof=walker daycare vet"`
	Date           string  `json:"date" binding:"required"`
	Time           string  `json:"time"`
	RequiresPickup bool    `json:"requiresPickup"`
	PickupAddress  string  `json:"pickupAddress"`
	Lat            float64 `json:"lat" binding:"required"`
	Lng            float64 `json:"lng" binding:"required"`
}

// CreateServiceRequest creates a pending request, computes the matched
// provider set, and fans it out to every matched provider's inbox.
func CreateServiceRequest(db *gorm.DB, hub *services.Hub, registry *matching.Registry, inbox *matching.Inbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")

		var input CreateRequestInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !utils.ValidCoordinates(input.Lat, input.Lng) {
			c.JSON(400, gin.H{"error": "Invalid coordinates"})
			return
		}

		serviceType := models.ServiceType(input.ServiceType)
		if serviceType != models.ServiceDaycare && input.Time == "" {
			c.JSON(400, gin.H{"error": "time is required for this service"})
			return
		}

		if _, err := time.Parse("2006-01-02", input.Date); err != nil {
			c.JSON(400, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}

		var pet models.Pet
		if err := db.First(&pet, input.PetID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Pet not found"})
			return
		}
		if pet.OwnerID != ownerID {
			c.JSON(403, gin.H{"error": "Not your pet"})
			return
		}

		var owner models.User
		if err := db.First(&owner, ownerID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load owner"})
			return
		}

		providers, err := loadProvidersOfType(db, serviceType)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to load providers"})
			return
		}

		byID := make(map[uint]models.Provider, len(providers))
		for _, p := range providers {
			byID[p.ProviderID()] = p
		}

		candidates := matching.CandidatesFromProviders(providers)
		matches := matching.FindInRange(input.Lat, input.Lng, candidates)

		matchedIDs := make([]uint, 0, len(matches))
		for _, m := range matches {
			matchedIDs = append(matchedIDs, m.ID)
		}

		request, err := registry.Create(matching.CreateInput{
			OwnerID:          ownerID,
			PetID:            pet.ID,
			PetName:          pet.Name,
			PetBreed:         pet.Breed,
			ServiceType:      serviceType,
			Date:             input.Date,
			Time:             input.Time,
			RequiresPickup:   input.RequiresPickup,
			PickupAddress:    input.PickupAddress,
			OwnerLat:         input.Lat,
			OwnerLng:         input.Lng,
			MatchedProviders: matchedIDs,
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to create request"})
			return
		}

		if len(matches) == 0 {
			c.JSON(201, gin.H{
				"message":   "Request created. No providers available in your area right now.",
				"requestId": request.ID,
				"status":    request.Status,
				"matched":   0,
				"expiresAt": request.ExpiresAt,
			})
			return
		}

		items := make([]matching.DeliveryItem, 0, len(matches))
		for _, m := range matches {
			provider := byID[m.ID]
			earnings := utils.CalculateEarnings(provider.Rate(), m.DistanceKm, input.RequiresPickup)
			items = append(items, matching.DeliveryItem{
				ProviderID: m.ID,
				DistanceKm: m.DistanceKm,
				Earnings:   earnings.Total,
			})
		}

		entries, err := inbox.Deliver(request, matching.EntrySnapshot{
			PetName:   pet.Name,
			PetBreed:  pet.Breed,
			PetPhoto:  pet.PhotoURL,
			OwnerName: owner.Name,
		}, items)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to deliver request to providers"})
			return
		}

		// Push the offer to each matched provider over websocket and FCM.
		// Delivery is best-effort; the inbox rows are the source of truth.
		for _, entry := range entries {
			provider := byID[entry.ProviderID]
			hub.SendRequestOffer(provider.ProviderUserID(), services.RequestOffer{
				RequestID:  request.ID,
				InboxID:    entry.ID,
				PetName:    entry.PetName,
				Date:       entry.RequestedDate,
				Time:       entry.RequestedTime,
				DistanceKm: entry.DistanceKm,
				Earnings:   entry.Earnings,
			})

			var providerUser models.User
			if err := db.First(&providerUser, provider.ProviderUserID()).Error; err == nil && providerUser.FCMToken != "" {
				if err := services.SendRequestOfferNotification(c.Request.Context(), providerUser.FCMToken,
					request.ID, entry.PetName, entry.RequestedDate, entry.Earnings); err != nil {
					log.Printf("FCM offer to provider %d failed: %v", entry.ProviderID, err)
				}
			}
		}

		if err := services.PublishRequestUpdate(c.Request.Context(), request.ID, request.Status, map[string]interface{}{
			"matched": len(entries),
		}); err != nil {
			log.Printf("Publish request update failed: %v", err)
		}

		c.JSON(201, gin.H{
			"message":   "Request sent to nearby providers",
			"requestId": request.ID,
			"status":    request.Status,
			"matched":   len(entries),
			"expiresAt": request.ExpiresAt,
		})
	}
}

// GetMyRequests lists the authenticated owner's requests, newest first
func GetMyRequests(db *gorm.DB, registry *matching.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")

		var requests []models.ServiceRequest
		if err := db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&requests).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load requests"})
			return
		}

		for i := range requests {
			if _, err := registry.MarkExpiredIfDue(&requests[i]); err != nil {
				c.JSON(500, gin.H{"error": "Failed to load requests"})
				return
			}
		}

		c.JSON(200, gin.H{"requests": requests})
	}
}

// GetRequestStatus returns the owner's live view of one request,
// including countdown and the booking once one exists.
func GetRequestStatus(db *gorm.DB, registry *matching.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")
		requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid request id"})
			return
		}

		request, err := registry.Get(uint(requestID))
		if err != nil {
			if err == matching.ErrNotFound {
				c.JSON(404, gin.H{"error": "Request not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to load request"})
			return
		}
		if request.OwnerID != ownerID {
			c.JSON(403, gin.H{"error": "Not your request"})
			return
		}

		response := gin.H{
			"request": request,
			"matched": len(request.MatchedProviderIDs()),
		}

		if request.Status == models.RequestStatusPending {
			remaining := int64(time.Until(request.ExpiresAt).Seconds())
			if remaining < 0 {
				remaining = 0
			}
			response["expiresInSeconds"] = remaining
		}

		if request.BookingID != nil {
			var booking models.Booking
			if err := db.First(&booking, *request.BookingID).Error; err == nil {
				response["booking"] = booking
			}
		}

		c.JSON(200, response)
	}
}

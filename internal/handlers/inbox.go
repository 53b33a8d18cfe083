package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pettrust/pettrust-backend/internal/matching"
	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/internal/services"
	"gorm.io/gorm"
)

// inboxProvider resolves the authenticated user's provider profile, the
// identity all inbox operations are scoped to.
func inboxProvider(c *gin.Context, db *gorm.DB) (models.Provider, models.ServiceType, bool) {
	serviceType, ok := serviceTypeForRole(c.GetString("role"))
	if !ok {
		c.JSON(403, gin.H{"error": "Only providers have an inbox"})
		return nil, "", false
	}

	provider, err := providerForUser(db, serviceType, c.GetUint("userId"))
	if err != nil {
		c.JSON(404, gin.H{"error": "Provider profile not found"})
		return nil, "", false
	}
	return provider, serviceType, true
}

// GetInbox lists the provider's pending entries with live countdowns
func GetInbox(db *gorm.DB, inbox *matching.Inbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}

		entries, err := inbox.ListPending(provider.ProviderID(), serviceType)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to load inbox"})
			return
		}

		c.JSON(200, gin.H{"entries": entries})
	}
}

// MarkInboxEntryRead flags one entry as seen
func MarkInboxEntryRead(db *gorm.DB, inbox *matching.Inbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, _, ok := inboxProvider(c, db)
		if !ok {
			return
		}

		entryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid entry id"})
			return
		}

		if err := inbox.MarkRead(uint(entryID), provider.ProviderID()); err != nil {
			respondMatchingError(c, err)
			return
		}

		c.JSON(200, gin.H{"message": "Entry marked read"})
	}
}

// RespondToInboxEntry handles a provider's accept or reject of an entry.
// On a won acceptance the owner is notified and the losing providers'
// clients are told the request is gone.
func RespondToInboxEntry(db *gorm.DB, hub *services.Hub, inbox *matching.Inbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, serviceType, ok := inboxProvider(c, db)
		if !ok {
			return
		}

		entryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid entry id"})
			return
		}

		var input struct {
			Action string `json:"action" binding:"required,oneof=accept reject"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		result, err := inbox.Respond(uint(entryID), provider.ProviderID(), input.Action)
		if err != nil {
			respondMatchingError(c, err)
			return
		}

		if input.Action == matching.ActionAccept && result.Booking != nil {
			notifyAcceptance(c, db, hub, serviceType, provider, result)
		}

		response := gin.H{"entry": result.Entry, "request": result.Request}
		if result.Booking != nil {
			response["booking"] = result.Booking
		}
		c.JSON(200, response)
	}
}

// notifyAcceptance fans the outcome out: booking confirmation to the
// owner, claimed notices to the losing providers. All best-effort.
func notifyAcceptance(c *gin.Context, db *gorm.DB, hub *services.Hub, serviceType models.ServiceType, winner models.Provider, result *matching.RespondResult) {
	request := result.Request
	booking := result.Booking

	hub.SendBookingConfirmed(request.OwnerID, services.BookingConfirmed{
		RequestID:    request.ID,
		BookingID:    booking.ID,
		ProviderID:   winner.ProviderID(),
		ProviderName: winner.DisplayName(),
		Price:        booking.Price,
	})

	var owner models.User
	if err := db.First(&owner, request.OwnerID).Error; err == nil && owner.FCMToken != "" {
		if err := services.SendBookingConfirmedNotification(c.Request.Context(), owner.FCMToken, booking.ID, winner.DisplayName()); err != nil {
			log.Printf("FCM booking confirmation to owner %d failed: %v", request.OwnerID, err)
		}
	}

	for _, providerID := range request.MatchedProviderIDs() {
		if providerID == winner.ProviderID() {
			continue
		}
		loser, err := providerByID(db, serviceType, providerID)
		if err != nil {
			continue
		}
		hub.SendRequestClaimed(loser.ProviderUserID(), services.RequestClaimed{RequestID: request.ID})
	}

	if err := services.PublishBookingUpdate(c.Request.Context(), booking.ID, string(booking.Status), map[string]interface{}{
		"requestId":  request.ID,
		"providerId": winner.ProviderID(),
	}); err != nil {
		log.Printf("Publish booking update failed: %v", err)
	}
}

// respondMatchingError maps the matching failure taxonomy onto HTTP codes
func respondMatchingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, matching.ErrNotFound):
		c.JSON(404, gin.H{"error": "Not found"})
	case errors.Is(err, matching.ErrUnauthorized):
		c.JSON(403, gin.H{"error": "Not your inbox entry"})
	case errors.Is(err, matching.ErrNotMatched):
		c.JSON(403, gin.H{"error": "You were not matched to this request"})
	case errors.Is(err, matching.ErrAlreadyClaimed):
		c.JSON(409, gin.H{"error": "Request was already taken by another provider"})
	case errors.Is(err, matching.ErrExpired):
		c.JSON(410, gin.H{"error": "Request has expired"})
	case errors.Is(err, matching.ErrCapacityExceeded):
		c.JSON(409, gin.H{"error": "You have no capacity left for this slot"})
	case errors.Is(err, matching.ErrScheduleConflict):
		c.JSON(409, gin.H{"error": "You already have a booking at this time"})
	default:
		c.JSON(500, gin.H{"error": "Something went wrong"})
	}
}

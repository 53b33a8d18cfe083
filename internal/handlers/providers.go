package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pettrust/pettrust-backend/internal/matching"
	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/internal/services"
	"github.com/pettrust/pettrust-backend/pkg/utils"
	"gorm.io/gorm"
)

// serviceTypeForRole maps an authenticated provider role to its service type.
func serviceTypeForRole(role string) (models.ServiceType, bool) {
	switch role {
	case string(models.RoleWalker):
		return models.ServiceWalker, true
	case string(models.RoleDaycare):
		return models.ServiceDaycare, true
	case string(models.RoleVet):
		return models.ServiceVet, true
	}
	return "", false
}

// loadProvidersOfType fetches every profile of a service type as the
// common Provider view used by the matcher.
func loadProvidersOfType(db *gorm.DB, serviceType models.ServiceType) ([]models.Provider, error) {
	switch serviceType {
	case models.ServiceWalker:
		var walkers []models.WalkerProfile
		if err := db.Find(&walkers).Error; err != nil {
			return nil, err
		}
		providers := make([]models.Provider, 0, len(walkers))
		for i := range walkers {
			providers = append(providers, &walkers[i])
		}
		return providers, nil
	case models.ServiceDaycare:
		var daycares []models.DaycareProfile
		if err := db.Find(&daycares).Error; err != nil {
			return nil, err
		}
		providers := make([]models.Provider, 0, len(daycares))
		for i := range daycares {
			providers = append(providers, &daycares[i])
		}
		return providers, nil
	default:
		var vets []models.VetProfile
		if err := db.Find(&vets).Error; err != nil {
			return nil, err
		}
		providers := make([]models.Provider, 0, len(vets))
		for i := range vets {
			providers = append(providers, &vets[i])
		}
		return providers, nil
	}
}

// providerByID loads a single profile of a service type.
func providerByID(db *gorm.DB, serviceType models.ServiceType, providerID uint) (models.Provider, error) {
	switch serviceType {
	case models.ServiceWalker:
		var walker models.WalkerProfile
		if err := db.First(&walker, providerID).Error; err != nil {
			return nil, err
		}
		return &walker, nil
	case models.ServiceDaycare:
		var daycare models.DaycareProfile
		if err := db.First(&daycare, providerID).Error; err != nil {
			return nil, err
		}
		return &daycare, nil
	default:
		var vet models.VetProfile
		if err := db.First(&vet, providerID).Error; err != nil {
			return nil, err
		}
		return &vet, nil
	}
}

// providerForUser loads the profile owned by the authenticated provider user.
func providerForUser(db *gorm.DB, serviceType models.ServiceType, userID uint) (models.Provider, error) {
	switch serviceType {
	case models.ServiceWalker:
		var walker models.WalkerProfile
		if err := db.Where("user_id = ?", userID).First(&walker).Error; err != nil {
			return nil, err
		}
		return &walker, nil
	case models.ServiceDaycare:
		var daycare models.DaycareProfile
		if err := db.Where("user_id = ?", userID).First(&daycare).Error; err != nil {
			return nil, err
		}
		return &daycare, nil
	default:
		var vet models.VetProfile
		if err := db.Where("user_id = ?", userID).First(&vet).Error; err != nil {
			return nil, err
		}
		return &vet, nil
	}
}

type WalkerProfileInput struct {
	Name            string   `json:"name" binding:"required"`
	Bio             string   `json:"bio"`
	ExperienceYears int      `json:"experienceYears"`
	Location        string   `json:"location"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	ServiceRadiusKm float64  `json:"serviceRadiusKm" binding:"required,gt=0"`
	PricePerWalk    float64  `json:"pricePerWalk" binding:"required,gt=0"`
	CapacityMax     int      `json:"capacityMax" binding:"required,gte=1"`
	Insured         bool     `json:"insured"`
}

type DaycareProfileInput struct {
	Name              string   `json:"name" binding:"required"`
	Description       string   `json:"description"`
	Location          string   `json:"location"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	PickupRadiusKm    float64  `json:"pickupRadiusKm" binding:"required,gt=0"`
	PricePerDay       float64  `json:"pricePerDay" binding:"required,gt=0"`
	CapacityTotal     int      `json:"capacityTotal" binding:"required,gte=1"`
	HasCameras        bool     `json:"hasCameras"`
	HasTransportation bool     `json:"hasTransportation"`
	HasGreenAreas     bool     `json:"hasGreenAreas"`
}

type VetProfileInput struct {
	Name            string   `json:"name" binding:"required"`
	Bio             string   `json:"bio"`
	Specialty       string   `json:"specialty"`
	LicenseNumber   string   `json:"licenseNumber"`
	Location        string   `json:"location"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	ServiceRadiusKm float64  `json:"serviceRadiusKm" binding:"required,gt=0"`
	HomeVisitFee    float64  `json:"homeVisitFee" binding:"required,gt=0"`
}

func validProfileCoords(c *gin.Context, lat, lng *float64) bool {
	if lat == nil && lng == nil {
		return true
	}
	if lat == nil || lng == nil || !utils.ValidCoordinates(*lat, *lng) {
		c.JSON(400, gin.H{"error": "Invalid coordinates"})
		return false
	}
	return true
}

// UpsertWalkerProfile creates or updates the walker profile of the
// authenticated user.
func UpsertWalkerProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input WalkerProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if !validProfileCoords(c, input.Lat, input.Lng) {
			return
		}

		var walker models.WalkerProfile
		err := db.Where("user_id = ?", userID).First(&walker).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			c.JSON(500, gin.H{"error": "Failed to load profile"})
			return
		}

		walker.UserID = userID
		walker.Name = input.Name
		walker.Bio = input.Bio
		walker.ExperienceYears = input.ExperienceYears
		walker.Location = input.Location
		walker.Latitude = input.Lat
		walker.Longitude = input.Lng
		walker.ServiceRadiusKm = input.ServiceRadiusKm
		walker.PricePerWalk = input.PricePerWalk
		walker.CapacityMax = input.CapacityMax
		walker.Insured = input.Insured
		if walker.ID == 0 {
			walker.IsActive = true
			walker.Rating = 5
		}

		if err := db.Save(&walker).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save profile"})
			return
		}

		c.JSON(200, gin.H{"profile": walker})
	}
}

// UpsertDaycareProfile creates or updates the daycare profile of the
// authenticated user.
func UpsertDaycareProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input DaycareProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if !validProfileCoords(c, input.Lat, input.Lng) {
			return
		}

		var daycare models.DaycareProfile
		err := db.Where("user_id = ?", userID).First(&daycare).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			c.JSON(500, gin.H{"error": "Failed to load profile"})
			return
		}

		daycare.UserID = userID
		daycare.Name = input.Name
		daycare.Description = input.Description
		daycare.Location = input.Location
		daycare.Latitude = input.Lat
		daycare.Longitude = input.Lng
		daycare.PickupRadiusKm = input.PickupRadiusKm
		daycare.PricePerDay = input.PricePerDay
		daycare.CapacityTotal = input.CapacityTotal
		daycare.HasCameras = input.HasCameras
		daycare.HasTransportation = input.HasTransportation
		daycare.HasGreenAreas = input.HasGreenAreas
		if daycare.ID == 0 {
			daycare.IsActive = true
			daycare.Rating = 5
		}

		if err := db.Save(&daycare).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save profile"})
			return
		}

		c.JSON(200, gin.H{"profile": daycare})
	}
}

// UpsertVetProfile creates or updates the vet profile of the
// authenticated user.
func UpsertVetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input VetProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if !validProfileCoords(c, input.Lat, input.Lng) {
			return
		}

		var vet models.VetProfile
		err := db.Where("user_id = ?", userID).First(&vet).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			c.JSON(500, gin.H{"error": "Failed to load profile"})
			return
		}

		vet.UserID = userID
		vet.Name = input.Name
		vet.Bio = input.Bio
		vet.Specialty = input.Specialty
		vet.LicenseNumber = input.LicenseNumber
		vet.Location = input.Location
		vet.Latitude = input.Lat
		vet.Longitude = input.Lng
		vet.ServiceRadiusKm = input.ServiceRadiusKm
		vet.HomeVisitFee = input.HomeVisitFee
		if vet.ID == 0 {
			vet.IsActive = true
			vet.Rating = 5
		}

		if err := db.Save(&vet).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save profile"})
			return
		}

		c.JSON(200, gin.H{"profile": vet})
	}
}

// GetMyProviderProfile returns the profile of the authenticated provider
func GetMyProviderProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		serviceType, ok := serviceTypeForRole(c.GetString("role"))
		if !ok {
			c.JSON(403, gin.H{"error": "Only providers have service profiles"})
			return
		}

		provider, err := providerForUser(db, serviceType, userID)
		if err != nil {
			c.JSON(404, gin.H{"error": "Profile not found"})
			return
		}

		c.JSON(200, gin.H{"profile": provider})
	}
}

// ListProviders returns the active providers of a service type
func ListProviders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		serviceType := models.ServiceType(c.Param("type"))
		switch serviceType {
		case models.ServiceWalker, models.ServiceDaycare, models.ServiceVet:
		default:
			c.JSON(400, gin.H{"error": "Unknown service type"})
			return
		}

		providers, err := loadProvidersOfType(db, serviceType)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to load providers"})
			return
		}

		active := make([]models.Provider, 0, len(providers))
		for _, p := range providers {
			if p.Active() {
				active = append(active, p)
			}
		}

		c.JSON(200, gin.H{"providers": active})
	}
}

// GetProvider returns one provider profile with its reviews
func GetProvider(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		serviceType := models.ServiceType(c.Param("type"))
		providerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid provider id"})
			return
		}

		provider, err := providerByID(db, serviceType, uint(providerID))
		if err != nil {
			c.JSON(404, gin.H{"error": "Provider not found"})
			return
		}

		var reviews []models.Review
		if err := db.Preload("Owner").
			Where("service_type = ? AND provider_id = ?", serviceType, providerID).
			Order("created_at DESC").Limit(20).Find(&reviews).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load reviews"})
			return
		}

		c.JSON(200, gin.H{"provider": provider, "reviews": reviews})
	}
}

// SetAvailability toggles the provider's is_active flag and mirrors it
// into the Redis availability cache.
func SetAvailability(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		serviceType, ok := serviceTypeForRole(c.GetString("role"))
		if !ok {
			c.JSON(403, gin.H{"error": "Only providers can set availability"})
			return
		}

		var input struct {
			IsActive *bool `json:"isActive" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		provider, err := providerForUser(db, serviceType, userID)
		if err != nil {
			c.JSON(404, gin.H{"error": "Profile not found"})
			return
		}

		var model interface{}
		switch serviceType {
		case models.ServiceWalker:
			model = &models.WalkerProfile{}
		case models.ServiceDaycare:
			model = &models.DaycareProfile{}
		default:
			model = &models.VetProfile{}
		}

		if err := db.Model(model).Where("id = ?", provider.ProviderID()).
			Update("is_active", *input.IsActive).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update availability"})
			return
		}

		if err := services.SetProviderAvailability(c.Request.Context(), string(serviceType), provider.ProviderID(), *input.IsActive); err != nil {
			// Cache failure is not fatal; the database is authoritative
			c.JSON(200, gin.H{"isActive": *input.IsActive, "cached": false})
			return
		}

		c.JSON(200, gin.H{"isActive": *input.IsActive, "cached": true})
	}
}

// CheckProviderCapacity answers whether a provider could still take a
// booking for a date and time slot.
func CheckProviderCapacity(db *gorm.DB, ledger *matching.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		serviceType := models.ServiceType(c.Param("type"))
		providerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid provider id"})
			return
		}

		date := c.Query("date")
		timeSlot := c.Query("time")
		if date == "" {
			c.JSON(400, gin.H{"error": "date query parameter required"})
			return
		}

		available, err := ledger.HasCapacity(serviceType, uint(providerID), date, timeSlot)
		if err != nil {
			if err == matching.ErrNotFound {
				c.JSON(404, gin.H{"error": "Provider not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to check capacity"})
			return
		}

		c.JSON(200, gin.H{"available": available})
	}
}

// UploadProviderPhoto replaces the provider's profile image
func UploadProviderPhoto(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		serviceType, ok := serviceTypeForRole(c.GetString("role"))
		if !ok {
			c.JSON(403, gin.H{"error": "Only providers have service profiles"})
			return
		}

		provider, err := providerForUser(db, serviceType, userID)
		if err != nil {
			c.JSON(404, gin.H{"error": "Profile not found"})
			return
		}

		file, err := c.FormFile("photo")
		if err != nil {
			c.JSON(400, gin.H{"error": "Photo file is required"})
			return
		}

		url, err := uploadPhoto(file, services.FolderProfiles)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload photo"})
			return
		}

		var model interface{}
		switch serviceType {
		case models.ServiceWalker:
			model = &models.WalkerProfile{}
		case models.ServiceDaycare:
			model = &models.DaycareProfile{}
		default:
			model = &models.VetProfile{}
		}

		if err := db.Model(model).Where("id = ?", provider.ProviderID()).
			Update("profile_image", url).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save photo"})
			return
		}

		c.JSON(200, gin.H{"profileImage": url})
	}
}

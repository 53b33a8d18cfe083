package handlers

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/internal/services"
	"gorm.io/gorm"
)

func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		updates := map[string]interface{}{}
		if input.Name != "" {
			updates["name"] = input.Name
		}
		if input.Phone != "" {
			updates["phone_number"] = input.Phone
		}
		if len(updates) == 0 {
			c.JSON(400, gin.H{"error": "Nothing to update"})
			return
		}

		if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update profile"})
			return
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load profile"})
			return
		}

		c.JSON(200, gin.H{"user": user})
	}
}

// RegisterFCMToken stores the device token used for push notifications
func RegisterFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if err := db.Model(&models.User{}).Where("id = ?", userID).
			Update("fcm_token", input.Token).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save device token"})
			return
		}

		c.JSON(200, gin.H{"message": "Device token registered"})
	}
}

// RemoveFCMToken clears the device token, typically on logout
func RemoveFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		if err := db.Model(&models.User{}).Where("id = ?", userID).
			Update("fcm_token", "").Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to remove device token"})
			return
		}

		c.JSON(200, gin.H{"message": "Device token removed"})
	}
}

// uploadPhoto stores a multipart image in the given folder and returns
// its public URL. Shared by the pet, profile, and check-in handlers.
func uploadPhoto(file *multipart.FileHeader, folder string) (string, error) {
	path, err := services.UploadImage(file, folder)
	if err != nil {
		return "", err
	}
	return services.GetImageURL(path), nil
}

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/internal/services"
	"gorm.io/gorm"
)

type PetInput struct {
	Name         string  `json:"name" binding:"required"`
	Breed        string  `json:"breed" binding:"required"`
	Age          int     `json:"age"`
	WeightKg     float64 `json:"weightKg"`
	SpecialNeeds string  `json:"specialNeeds"`
}

func CreatePet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")

		var input PetInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		pet := models.Pet{
			OwnerID:      ownerID,
			Name:         input.Name,
			Breed:        input.Breed,
			Age:          input.Age,
			WeightKg:     input.WeightKg,
			SpecialNeeds: input.SpecialNeeds,
		}

		if err := db.Create(&pet).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create pet"})
			return
		}

		c.JSON(201, gin.H{"pet": pet})
	}
}

func GetPets(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")

		var pets []models.Pet
		if err := db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&pets).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to load pets"})
			return
		}

		c.JSON(200, gin.H{"pets": pets})
	}
}

func UpdatePet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")
		petID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid pet id"})
			return
		}

		pet, ok := ownedPet(c, db, uint(petID), ownerID)
		if !ok {
			return
		}

		var input PetInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		pet.Name = input.Name
		pet.Breed = input.Breed
		pet.Age = input.Age
		pet.WeightKg = input.WeightKg
		pet.SpecialNeeds = input.SpecialNeeds

		if err := db.Save(pet).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update pet"})
			return
		}

		c.JSON(200, gin.H{"pet": pet})
	}
}

func DeletePet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")
		petID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid pet id"})
			return
		}

		pet, ok := ownedPet(c, db, uint(petID), ownerID)
		if !ok {
			return
		}

		if err := db.Delete(pet).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete pet"})
			return
		}

		c.JSON(200, gin.H{"message": "Pet deleted"})
	}
}

// UploadPetPhoto replaces the pet's photo with an uploaded image
func UploadPetPhoto(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.GetUint("userId")
		petID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid pet id"})
			return
		}

		pet, ok := ownedPet(c, db, uint(petID), ownerID)
		if !ok {
			return
		}

		file, err := c.FormFile("photo")
		if err != nil {
			c.JSON(400, gin.H{"error": "Photo file is required"})
			return
		}

		url, err := uploadPhoto(file, services.FolderPets)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload photo"})
			return
		}

		if err := db.Model(pet).Update("photo_url", url).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save photo"})
			return
		}

		c.JSON(200, gin.H{"photoUrl": url})
	}
}

func ownedPet(c *gin.Context, db *gorm.DB, petID, ownerID uint) (*models.Pet, bool) {
	var pet models.Pet
	if err := db.First(&pet, petID).Error; err != nil {
		c.JSON(404, gin.H{"error": "Pet not found"})
		return nil, false
	}
	if pet.OwnerID != ownerID {
		c.JSON(403, gin.H{"error": "Not your pet"})
		return nil, false
	}
	return &pet, true
}

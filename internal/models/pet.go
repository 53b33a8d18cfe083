package models

import (
	"gorm.io/gorm"
)

// Pet belongs to an owner account. Name and breed are denormalized into
// inbox entries and bookings for display.
type Pet struct {
	gorm.Model
	OwnerID      uint    `json:"ownerId" gorm:"not null;index"`
	Name         string  `json:"name" gorm:"not null"`
	Breed        string  `json:"breed" gorm:"not null"`
	Age          int     `json:"age"`
	WeightKg     float64 `json:"weightKg"`
	SpecialNeeds string  `json:"specialNeeds,omitempty"`
	PhotoURL     string  `json:"photoUrl,omitempty"`
	Owner        *User   `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// TableName specifies the table name
func (Pet) TableName() string {
	return "pets"
}

package models

import (
	"gorm.io/gorm"
)

// WellnessReport is the walker's end-of-service summary for a booking.
type WellnessReport struct {
	gorm.Model
	BookingID uint   `json:"bookingId" gorm:"not null;uniqueIndex"`
	WalkerID  uint   `json:"walkerId" gorm:"not null"`
	PetID     uint   `json:"petId" gorm:"not null"`
	Ate       bool   `json:"ate" gorm:"not null;default:false"`
	Bathroom  bool   `json:"bathroom" gorm:"not null;default:false"`
	Mood      string `json:"mood" gorm:"not null;default:'happy'"`
	Notes     string `json:"notes,omitempty"`
	PhotoURLs string `json:"photoUrls,omitempty" gorm:"type:text"` // JSON array
}

// TableName specifies the table name
func (WellnessReport) TableName() string {
	return "wellness_reports"
}

// TrackingPoint is a GPS breadcrumb recorded by the walker during a walk.
type TrackingPoint struct {
	gorm.Model
	BookingID uint    `json:"bookingId" gorm:"not null;index"`
	WalkerID  uint    `json:"walkerId" gorm:"not null"`
	Latitude  float64 `json:"lat" gorm:"not null"`
	Longitude float64 `json:"lng" gorm:"not null"`
}

// TableName specifies the table name
func (TrackingPoint) TableName() string {
	return "tracking_points"
}

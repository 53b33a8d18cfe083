package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SOSStatusOpen     = "open"
	SOSStatusResolved = "resolved"
)

// SOSAlert is raised by either party of an active booking. Open alerts
// are broadcast to the counterparty and support staff immediately.
type SOSAlert struct {
	gorm.Model
	BookingID uint    `json:"bookingId" gorm:"not null;index"`
	RaisedBy  uint    `json:"raisedBy" gorm:"not null"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Message   string  `json:"message,omitempty"`
	Status    string  `json:"status" gorm:"not null;default:'open'"`
}

// TableName specifies the table name
func (SOSAlert) TableName() string {
	return "sos_alerts"
}

// CheckIn is a walker's periodic "all good" ping during a service.
type CheckIn struct {
	gorm.Model
	BookingID uint    `json:"bookingId" gorm:"not null;index"`
	WalkerID  uint    `json:"walkerId" gorm:"not null"`
	Latitude  float64 `json:"lat" gorm:"not null"`
	Longitude float64 `json:"lng" gorm:"not null"`
	Note      string  `json:"note,omitempty"`
	PhotoURL  string  `json:"photoUrl,omitempty"`
}

// TableName specifies the table name
func (CheckIn) TableName() string {
	return "check_ins"
}

// TripShare is a public, token-addressed read-only view of an in-progress
// booking's live position, for the owner to share with family.
type TripShare struct {
	gorm.Model
	BookingID uint      `json:"bookingId" gorm:"not null;index"`
	OwnerID   uint      `json:"ownerId" gorm:"not null"`
	Token     string    `json:"token" gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
}

// TableName specifies the table name
func (TripShare) TableName() string {
	return "trip_shares"
}

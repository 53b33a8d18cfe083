package models

import (
	"gorm.io/gorm"
)

// Review is an owner's rating of a completed booking. Provider rating
// and review count are re-aggregated on each write.
type Review struct {
	gorm.Model
	BookingID   uint        `json:"bookingId" gorm:"not null;uniqueIndex"`
	OwnerID     uint        `json:"ownerId" gorm:"not null"`
	ServiceType ServiceType `json:"serviceType" gorm:"not null"`
	ProviderID  uint        `json:"providerId" gorm:"not null;index"`
	Rating      int         `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment     string      `json:"comment"`
	Owner       *User       `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// TableName specifies the table name
func (Review) TableName() string {
	return "reviews"
}

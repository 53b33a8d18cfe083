package models

import (
	"time"

	"gorm.io/gorm"
)

// InboxEntry is a provider-facing notification of a matched service
// request. Display fields are snapshotted at delivery time so the inbox
// view stays stable even if the request or profile changes afterwards.
// Exactly one entry exists per (provider, request) pair.
type InboxEntry struct {
	gorm.Model
	ProviderID   uint        `json:"providerId" gorm:"not null;index;uniqueIndex:idx_provider_request"`
	ProviderType ServiceType `json:"providerType" gorm:"not null"`
	RequestID    uint        `json:"requestId" gorm:"not null;index;uniqueIndex:idx_provider_request"`

	PetName       string  `json:"petName"`
	PetBreed      string  `json:"petBreed"`
	PetPhoto      string  `json:"petPhoto,omitempty"`
	OwnerName     string  `json:"ownerName"`
	RequestedDate string  `json:"requestedDate"`
	RequestedTime string  `json:"requestedTime"`
	DistanceKm    float64 `json:"distanceKm"`
	Earnings      float64 `json:"earnings"`

	IsRead      bool       `json:"isRead" gorm:"not null;default:false"`
	IsDismissed bool       `json:"isDismissed" gorm:"not null;default:false"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`

	Request *ServiceRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
}

// TableName specifies the table name
func (InboxEntry) TableName() string {
	return "inbox_entries"
}

package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusExpired  = "expired"
)

// ServiceRequest is an owner's intent to book a service. The matched
// provider set is computed once at creation and frozen; status moves
// pending -> accepted or pending -> expired and is terminal, except for
// the compensating rollback after a failed downstream commit.
type ServiceRequest struct {
	gorm.Model
	OwnerID     uint        `json:"ownerId" gorm:"not null;index"`
	PetID       uint        `json:"petId" gorm:"not null"`
	PetName     string      `json:"petName" gorm:"not null"`
	PetBreed    string      `json:"petBreed"`
	ServiceType ServiceType `json:"serviceType" gorm:"not null"`

	RequestedDate  string `json:"requestedDate" gorm:"not null"` // "2006-01-02"
	RequestedTime  string `json:"requestedTime"`                 // "15:04", empty for daycare
	RequiresPickup bool   `json:"requiresPickup" gorm:"not null;default:false"`
	PickupAddress  string `json:"pickupAddress,omitempty"`

	OwnerLat float64 `json:"ownerLat" gorm:"not null"`
	OwnerLng float64 `json:"ownerLng" gorm:"not null"`

	// MatchedProviders is the frozen, distance-ordered provider id set,
	// stored as a JSON array. Written once in Create, never updated.
	MatchedProviders string `json:"-" gorm:"type:text;not null;default:'[]'"`

	Status     string     `json:"status" gorm:"not null;default:'pending';index"`
	AcceptedBy *uint      `json:"acceptedBy,omitempty"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt" gorm:"not null"`
	BookingID  *uint      `json:"bookingId,omitempty"`

	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Pet   *Pet  `json:"pet,omitempty" gorm:"foreignKey:PetID"`
}

// TableName specifies the table name
func (ServiceRequest) TableName() string {
	return "service_requests"
}

func (r *ServiceRequest) SetMatchedProviders(ids []uint) {
	if ids == nil {
		ids = []uint{}
	}
	data, _ := json.Marshal(ids)
	r.MatchedProviders = string(data)
}

func (r *ServiceRequest) MatchedProviderIDs() []uint {
	var ids []uint
	if err := json.Unmarshal([]byte(r.MatchedProviders), &ids); err != nil {
		return nil
	}
	return ids
}

func (r *ServiceRequest) IsMatchedProvider(providerID uint) bool {
	for _, id := range r.MatchedProviderIDs() {
		if id == providerID {
			return true
		}
	}
	return false
}

// ExpiredAt reports whether the request's TTL has lapsed at the given instant.
func (r *ServiceRequest) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

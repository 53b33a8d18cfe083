package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Booking is created exactly once per accepted service request, with
// status "confirmed" and the price copied from the winning inbox entry's
// earnings snapshot.
type Booking struct {
	gorm.Model
	OwnerID     uint        `json:"ownerId" gorm:"not null;index"`
	PetID       uint        `json:"petId" gorm:"not null"`
	PetName     string      `json:"petName"`
	ServiceType ServiceType `json:"serviceType" gorm:"not null"`
	ProviderID  uint        `json:"providerId" gorm:"not null;index"`
	RequestID   uint        `json:"requestId" gorm:"not null;uniqueIndex"`

	Date           string `json:"date" gorm:"not null;index"`
	Time           string `json:"time" gorm:"index"`
	RequiresPickup bool   `json:"requiresPickup" gorm:"not null;default:false"`
	PickupAddress  string `json:"pickupAddress,omitempty"`

	Status        BookingStatus `json:"status" gorm:"not null;default:'confirmed';index"`
	Price         float64       `json:"price" gorm:"not null"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"not null;default:'pending'"`
	PaymentID     string        `json:"paymentId,omitempty"`

	// MeetingPIN is the 4-digit handoff verification code shown to the
	// owner and confirmed by the provider at the meeting point.
	MeetingPIN        string     `json:"-" gorm:"column:meeting_pin"`
	MeetingVerifiedAt *time.Time `json:"meetingVerifiedAt,omitempty"`

	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Pet   *Pet  `json:"pet,omitempty" gorm:"foreignKey:PetID"`
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "bookings"
}

// ActiveBookingStatuses are the states that count against provider capacity.
func ActiveBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress}
}

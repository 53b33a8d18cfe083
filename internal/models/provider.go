package models

import (
	"gorm.io/gorm"
)

type ServiceType string

const (
	ServiceWalker  ServiceType = "walker"
	ServiceDaycare ServiceType = "daycare"
	ServiceVet     ServiceType = "vet"
)

// CapacityScope declares how a provider's capacity is counted: per
// (date, time) slot or per whole day.
type CapacityScope string

const (
	CapacityPerSlot CapacityScope = "slot"
	CapacityPerDay  CapacityScope = "day"
)

// Provider is the common view over the three profile types. The matching
// core only sees this interface plus the service type tag.
type Provider interface {
	ProviderID() uint
	ProviderUserID() uint
	Type() ServiceType
	// Coordinates returns the stored position. ok is false when the
	// profile has no position on file; such providers are never matched.
	Coordinates() (lat, lng float64, ok bool)
	RangeKm() float64
	Active() bool
	Scope() CapacityScope
	Rate() float64
	DisplayName() string
}

// WalkerProfile is a dog walker's service profile. Capacity is per
// (date, time) slot: a walker can take up to CapacityMax concurrent walks.
type WalkerProfile struct {
	gorm.Model
	UserID          uint     `json:"userId" gorm:"not null;uniqueIndex"`
	Name            string   `json:"name" gorm:"not null"`
	Bio             string   `json:"bio"`
	ExperienceYears int      `json:"experienceYears"`
	Location        string   `json:"location"`
	Latitude        *float64 `json:"lat,omitempty"`
	Longitude       *float64 `json:"lng,omitempty"`
	ServiceRadiusKm float64  `json:"serviceRadiusKm" gorm:"not null;default:5"`
	IsActive        bool     `json:"isActive" gorm:"not null;default:true"`
	Verified        bool     `json:"verified" gorm:"not null;default:false"`
	Insured         bool     `json:"insured" gorm:"not null;default:true"`
	Rating          float64  `json:"rating" gorm:"not null;default:5"`
	ReviewsCount    int      `json:"reviewsCount" gorm:"not null;default:0"`
	PricePerWalk    float64  `json:"pricePerWalk" gorm:"not null"`
	CapacityMax     int      `json:"capacityMax" gorm:"not null;default:1"`
	CapacityCurrent int      `json:"capacityCurrent" gorm:"not null;default:0"`
	ProfileImage    string   `json:"profileImage,omitempty"`
	User            *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (WalkerProfile) TableName() string { return "walker_profiles" }

func (w *WalkerProfile) ProviderID() uint     { return w.ID }
func (w *WalkerProfile) ProviderUserID() uint { return w.UserID }
func (w *WalkerProfile) Type() ServiceType    { return ServiceWalker }
func (w *WalkerProfile) Coordinates() (float64, float64, bool) {
	if w.Latitude == nil || w.Longitude == nil {
		return 0, 0, false
	}
	return *w.Latitude, *w.Longitude, true
}
func (w *WalkerProfile) RangeKm() float64     { return w.ServiceRadiusKm }
func (w *WalkerProfile) Active() bool         { return w.IsActive }
func (w *WalkerProfile) Scope() CapacityScope { return CapacityPerSlot }
func (w *WalkerProfile) Rate() float64        { return w.PricePerWalk }
func (w *WalkerProfile) DisplayName() string  { return w.Name }

// DaycareProfile is a pet daycare's service profile. Capacity is per day
// against CapacityTotal; PickupRadiusKm bounds the pickup service area.
type DaycareProfile struct {
	gorm.Model
	UserID            uint     `json:"userId" gorm:"not null;uniqueIndex"`
	Name              string   `json:"name" gorm:"not null"`
	Description       string   `json:"description"`
	Location          string   `json:"location"`
	Latitude          *float64 `json:"lat,omitempty"`
	Longitude         *float64 `json:"lng,omitempty"`
	PickupRadiusKm    float64  `json:"pickupRadiusKm" gorm:"not null;default:8"`
	HasCameras        bool     `json:"hasCameras" gorm:"not null;default:true"`
	HasTransportation bool     `json:"hasTransportation" gorm:"not null;default:false"`
	HasGreenAreas     bool     `json:"hasGreenAreas" gorm:"not null;default:true"`
	IsActive          bool     `json:"isActive" gorm:"not null;default:true"`
	Verified          bool     `json:"verified" gorm:"not null;default:false"`
	Insured           bool     `json:"insured" gorm:"not null;default:true"`
	Rating            float64  `json:"rating" gorm:"not null;default:5"`
	ReviewsCount      int      `json:"reviewsCount" gorm:"not null;default:0"`
	PricePerDay       float64  `json:"pricePerDay" gorm:"not null"`
	CapacityTotal     int      `json:"capacityTotal" gorm:"not null;default:10"`
	ProfileImage      string   `json:"profileImage,omitempty"`
	User              *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (DaycareProfile) TableName() string { return "daycare_profiles" }

func (d *DaycareProfile) ProviderID() uint     { return d.ID }
func (d *DaycareProfile) ProviderUserID() uint { return d.UserID }
func (d *DaycareProfile) Type() ServiceType    { return ServiceDaycare }
func (d *DaycareProfile) Coordinates() (float64, float64, bool) {
	if d.Latitude == nil || d.Longitude == nil {
		return 0, 0, false
	}
	return *d.Latitude, *d.Longitude, true
}
func (d *DaycareProfile) RangeKm() float64     { return d.PickupRadiusKm }
func (d *DaycareProfile) Active() bool         { return d.IsActive }
func (d *DaycareProfile) Scope() CapacityScope { return CapacityPerDay }
func (d *DaycareProfile) Rate() float64        { return d.PricePerDay }
func (d *DaycareProfile) DisplayName() string  { return d.Name }

// VetProfile is a veterinarian offering home visits. One visit per
// (date, time) slot.
type VetProfile struct {
	gorm.Model
	UserID          uint     `json:"userId" gorm:"not null;uniqueIndex"`
	Name            string   `json:"name" gorm:"not null"`
	Bio             string   `json:"bio"`
	Specialty       string   `json:"specialty"`
	LicenseNumber   string   `json:"licenseNumber"`
	Location        string   `json:"location"`
	Latitude        *float64 `json:"lat,omitempty"`
	Longitude       *float64 `json:"lng,omitempty"`
	ServiceRadiusKm float64  `json:"serviceRadiusKm" gorm:"not null;default:10"`
	IsActive        bool     `json:"isActive" gorm:"not null;default:true"`
	Verified        bool     `json:"verified" gorm:"not null;default:false"`
	Rating          float64  `json:"rating" gorm:"not null;default:5"`
	ReviewsCount    int      `json:"reviewsCount" gorm:"not null;default:0"`
	HomeVisitFee    float64  `json:"homeVisitFee" gorm:"not null"`
	ProfileImage    string   `json:"profileImage,omitempty"`
	User            *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (VetProfile) TableName() string { return "vet_profiles" }

func (v *VetProfile) ProviderID() uint     { return v.ID }
func (v *VetProfile) ProviderUserID() uint { return v.UserID }
func (v *VetProfile) Type() ServiceType    { return ServiceVet }
func (v *VetProfile) Coordinates() (float64, float64, bool) {
	if v.Latitude == nil || v.Longitude == nil {
		return 0, 0, false
	}
	return *v.Latitude, *v.Longitude, true
}
func (v *VetProfile) RangeKm() float64     { return v.ServiceRadiusKm }
func (v *VetProfile) Active() bool         { return v.IsActive }
func (v *VetProfile) Scope() CapacityScope { return CapacityPerSlot }
func (v *VetProfile) Rate() float64        { return v.HomeVisitFee }
func (v *VetProfile) DisplayName() string  { return v.Name }

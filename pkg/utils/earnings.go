package utils

import (
	"math"
)

// EarningsResult contains the computed provider payout and its breakdown.
// The total is snapshotted into the inbox entry at delivery time and is
// the price the booking is created with; it is never recomputed from
// current provider rates afterwards.
type EarningsResult struct {
	Total           float64           `json:"total"`
	BaseRate        float64           `json:"baseRate"`
	PickupSurcharge float64           `json:"pickupSurcharge"`
	PlatformFee     float64           `json:"platformFee"`
	DistanceKm      float64           `json:"distanceKm"`
	Breakdown       EarningsBreakdown `json:"breakdown"`
}

// EarningsBreakdown provides the detailed payout breakdown
type EarningsBreakdown struct {
	ServiceFee      float64 `json:"serviceFee"`
	PickupSurcharge float64 `json:"pickupSurcharge"`
	PlatformFee     float64 `json:"platformFee"`
	Total           float64 `json:"total"`
}

const (
	// Rates in COP
	PickupRatePerKm   = 1200.0 // Surcharge per km when the provider picks the pet up
	MinimumEarnings   = 15000.0
	PlatformFeeShare  = 0.15 // Marketplace cut of the service fee
	MaxPickupDistance = 50.0 // City-scale cap, km
)

// CalculateEarnings computes what a provider would earn for a request
// given their configured rate, the distance to the owner, and whether
// pickup was requested.
func CalculateEarnings(baseRate, distanceKm float64, requiresPickup bool) EarningsResult {
	if distanceKm < 0 || distanceKm > MaxPickupDistance {
		distanceKm = 0
	}

	serviceFee := baseRate

	var pickupSurcharge float64
	if requiresPickup {
		pickupSurcharge = distanceKm * PickupRatePerKm
	}

	platformFee := serviceFee * PlatformFeeShare

	total := serviceFee + pickupSurcharge - platformFee
	if total < MinimumEarnings {
		total = MinimumEarnings
	}

	// Round to whole pesos
	total = math.Round(total)
	pickupSurcharge = math.Round(pickupSurcharge)
	platformFee = math.Round(platformFee)

	return EarningsResult{
		Total:           total,
		BaseRate:        baseRate,
		PickupSurcharge: pickupSurcharge,
		PlatformFee:     platformFee,
		DistanceKm:      math.Round(distanceKm*100) / 100,
		Breakdown: EarningsBreakdown{
			ServiceFee:      serviceFee,
			PickupSurcharge: pickupSurcharge,
			PlatformFee:     platformFee,
			Total:           total,
		},
	}
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateEarningsWithoutPickup(t *testing.T) {
	result := CalculateEarnings(40000, 3.2, false)

	assert.Equal(t, float64(0), result.PickupSurcharge)
	assert.Equal(t, float64(6000), result.PlatformFee)
	assert.Equal(t, float64(34000), result.Total)
}

func TestCalculateEarningsWithPickup(t *testing.T) {
	result := CalculateEarnings(40000, 3.0, true)

	assert.Equal(t, float64(3600), result.PickupSurcharge)
	assert.Equal(t, float64(37600), result.Total)
	assert.Equal(t, result.Total, result.Breakdown.Total)
}

func TestCalculateEarningsFloor(t *testing.T) {
	result := CalculateEarnings(10000, 0, false)

	assert.Equal(t, MinimumEarnings, result.Total)
}

func TestCalculateEarningsIgnoresBogusDistance(t *testing.T) {
	result := CalculateEarnings(40000, 900, true)

	assert.Equal(t, float64(0), result.PickupSurcharge)
	assert.Equal(t, float64(0), result.DistanceKm)
}

func TestHaversineDistanceKnownPair(t *testing.T) {
	// Plaza de Bolívar to Parque de la 93, Bogotá: about 9.6 km.
	d := HaversineDistance(4.5981, -74.0760, 4.6766, -74.0481)
	assert.InDelta(t, 9.3, d, 0.7)
}

func TestIsWithinRadius(t *testing.T) {
	assert.True(t, IsWithinRadius(4.6951, -74.0621, 4.6951, -74.0621, 0.1))
	assert.False(t, IsWithinRadius(4.6951, -74.0621, 4.7851, -74.0621, 5))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(4.6951, -74.0621))
	assert.False(t, ValidCoordinates(91, 0))
	assert.False(t, ValidCoordinates(0, -181))
}

func TestGenerateMeetingPINIsFourDigitsAndStable(t *testing.T) {
	pin := GenerateMeetingPIN("42-7-1693526400")

	assert.Len(t, pin, 4)
	assert.Equal(t, pin, GenerateMeetingPIN("42-7-1693526400"))
	assert.NotEqual(t, pin, GenerateMeetingPIN("42-8-1693526400"))
}

package matching

import (
	"testing"

	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Bogotá reference points. Moving roughly 0.009 degrees of latitude is
// one kilometer.
const (
	originLat = 4.6951
	originLng = -74.0621
	latPerKm  = 1.0 / 110.574
)

func TestFindInRangeRespectsEachCandidatesRadius(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Lat: originLat + 3*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 5.0},
		{ID: 2, Lat: originLat + 8*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 5.0},
		{ID: 3, Lat: originLat + 8*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 10.0},
	}

	matches := FindInRange(originLat, originLng, candidates)

	require.Len(t, matches, 2)
	assert.Equal(t, uint(1), matches[0].ID)
	assert.Equal(t, uint(3), matches[1].ID)
	assert.InDelta(t, 3.0, matches[0].DistanceKm, 0.05)
	assert.InDelta(t, 8.0, matches[1].DistanceKm, 0.1)
}

func TestFindInRangeBoundary(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Lat: originLat + 4.9*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 5.0},
		{ID: 2, Lat: originLat + 5.1*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 5.0},
	}

	matches := FindInRange(originLat, originLng, candidates)

	require.Len(t, matches, 1)
	assert.Equal(t, uint(1), matches[0].ID)
}

func TestFindInRangeSortsByDistanceThenID(t *testing.T) {
	candidates := []Candidate{
		{ID: 9, Lat: originLat + 2*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 10},
		{ID: 4, Lat: originLat + 1*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 10},
		{ID: 7, Lat: originLat + 1*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 10},
		{ID: 2, Lat: originLat + 1*latPerKm, Lng: originLng, HasCoords: true, RadiusKm: 10},
	}

	matches := FindInRange(originLat, originLng, candidates)

	require.Len(t, matches, 4)
	assert.Equal(t, []uint{2, 4, 7, 9}, []uint{matches[0].ID, matches[1].ID, matches[2].ID, matches[3].ID})
}

func TestFindInRangeSkipsCandidatesWithoutCoordinates(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, HasCoords: false, RadiusKm: 100},
		{ID: 2, Lat: originLat, Lng: originLng, HasCoords: true, RadiusKm: 5},
	}

	matches := FindInRange(originLat, originLng, candidates)

	require.Len(t, matches, 1)
	assert.Equal(t, uint(2), matches[0].ID)
}

func TestFindInRangeEmptyCandidates(t *testing.T) {
	matches := FindInRange(originLat, originLng, nil)
	assert.Empty(t, matches)
}

func TestCandidatesFromProvidersDropsInactive(t *testing.T) {
	active := &models.WalkerProfile{ServiceRadiusKm: 5, IsActive: true, Latitude: ptr(originLat), Longitude: ptr(originLng)}
	active.ID = 1
	inactive := &models.WalkerProfile{ServiceRadiusKm: 5, IsActive: false, Latitude: ptr(originLat), Longitude: ptr(originLng)}
	inactive.ID = 2
	noCoords := &models.WalkerProfile{ServiceRadiusKm: 5, IsActive: true}
	noCoords.ID = 3

	candidates := CandidatesFromProviders([]models.Provider{active, inactive, noCoords})

	require.Len(t, candidates, 2)
	assert.Equal(t, uint(1), candidates[0].ID)
	assert.True(t, candidates[0].HasCoords)
	assert.Equal(t, uint(3), candidates[1].ID)
	assert.False(t, candidates[1].HasCoords)
}

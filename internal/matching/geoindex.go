package matching

import (
	"sort"

	"github.com/pettrust/pettrust-backend/internal/models"
	"github.com/pettrust/pettrust-backend/pkg/utils"
)

// Candidate is a provider considered for a request: its position and its
// own configured service range.
type Candidate struct {
	ID        uint
	Lat       float64
	Lng       float64
	HasCoords bool
	RadiusKm  float64
}

// Match is a provider found within range of a request origin.
type Match struct {
	ID         uint    `json:"id"`
	DistanceKm float64 `json:"distanceKm"`
}

// FindInRange returns the candidates whose distance from the origin does
// not exceed their own service radius, sorted ascending by distance with
// ties broken by id. Candidates without stored coordinates are skipped:
// a provider who has not set a position cannot be range-checked and is
// never matched.
func FindInRange(originLat, originLng float64, candidates []Candidate) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasCoords {
			continue
		}
		distance := utils.HaversineDistance(originLat, originLng, c.Lat, c.Lng)
		if distance > c.RadiusKm {
			continue
		}
		matches = append(matches, Match{ID: c.ID, DistanceKm: distance})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].ID < matches[j].ID
	})

	return matches
}

// CandidatesFromProviders adapts active provider profiles into geo
// candidates. Inactive providers are dropped here so they can never
// enter a matched set.
func CandidatesFromProviders(providers []models.Provider) []Candidate {
	candidates := make([]Candidate, 0, len(providers))
	for _, p := range providers {
		if !p.Active() {
			continue
		}
		lat, lng, ok := p.Coordinates()
		candidates = append(candidates, Candidate{
			ID:        p.ProviderID(),
			Lat:       lat,
			Lng:       lng,
			HasCoords: ok,
			RadiusKm:  p.RangeKm(),
		})
	}
	return candidates
}

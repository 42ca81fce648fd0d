// Package roster holds small pure helpers for team and player records:
// canonical team ids and placeholder physical stats for players entered
// without measurements.
package roster

import "math/rand"

// Physical is a sampled height/weight pair in metric units.
type Physical struct {
	HeightCM int64
	WeightKG int64
}

// Player positions as stored in the players table.
const (
	PositionGoalie  = "G"
	PositionDefense = "D"
	PositionForward = "F"
)

type physicalRange struct {
	minHeight, maxHeight int64
	minWeight, maxWeight int64
}

// Sampling ranges per position; defensemen skew taller and heavier,
// goalies sit between.
var physicalRanges = map[string]physicalRange{
	PositionGoalie:  {minHeight: 180, maxHeight: 196, minWeight: 78, maxWeight: 98},
	PositionDefense: {minHeight: 180, maxHeight: 200, minWeight: 85, maxWeight: 105},
	PositionForward: {minHeight: 172, maxHeight: 193, minWeight: 75, maxWeight: 100},
}

var defaultRange = physicalRange{minHeight: 172, maxHeight: 200, minWeight: 75, maxWeight: 105}

// GeneratePhysical samples a plausible height and weight for a player at the
// given position. Deterministic for a seeded rng; stateless otherwise.
func GeneratePhysical(position string, rng *rand.Rand) Physical {
	bounds, ok := physicalRanges[position]
	if !ok {
		bounds = defaultRange
	}

	return Physical{
		HeightCM: bounds.minHeight + rng.Int63n(bounds.maxHeight-bounds.minHeight+1),
		WeightKG: bounds.minWeight + rng.Int63n(bounds.maxWeight-bounds.minWeight+1),
	}
}

package roster

import (
	"math/rand"
	"testing"
)

func TestNormalizeTeamID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Ice Hawks", "ice-hawks"},
		{"already canonical", "ice-hawks", "ice-hawks"},
		{"mixed separators", "Ice_Hawks.Jr/Team", "ice-hawks-jr-team"},
		{"collapsed runs", "Ice   --  Hawks", "ice-hawks"},
		{"leading trailing junk", "  --Ice Hawks-- ", "ice-hawks"},
		{"punctuation dropped", "St. John's Caps!", "st-johns-caps"},
		{"digits kept", "Division 3 Wolves", "division-3-wolves"},
		{"uppercase", "RINKSIDE", "rinkside"},
		{"empty", "", ""},
		{"only junk", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTeamID(tt.input); got != tt.expected {
				t.Fatalf("NormalizeTeamID(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGeneratePhysicalWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, position := range []string{PositionGoalie, PositionDefense, PositionForward, "C"} {
		bounds, ok := physicalRanges[position]
		if !ok {
			bounds = defaultRange
		}
		for i := 0; i < 200; i++ {
			stats := GeneratePhysical(position, rng)
			if stats.HeightCM < bounds.minHeight || stats.HeightCM > bounds.maxHeight {
				t.Fatalf("%s height %d outside [%d, %d]", position, stats.HeightCM, bounds.minHeight, bounds.maxHeight)
			}
			if stats.WeightKG < bounds.minWeight || stats.WeightKG > bounds.maxWeight {
				t.Fatalf("%s weight %d outside [%d, %d]", position, stats.WeightKG, bounds.minWeight, bounds.maxWeight)
			}
		}
	}
}

func TestGeneratePhysicalDeterministicForSeed(t *testing.T) {
	first := GeneratePhysical(PositionForward, rand.New(rand.NewSource(7)))
	second := GeneratePhysical(PositionForward, rand.New(rand.NewSource(7)))
	if first != second {
		t.Fatalf("same seed produced %+v and %+v", first, second)
	}
}

package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SmallPassWeights are the contributions of the cheap ranking heuristic.
type SmallPassWeights struct {
	InterestOverlap     float64 `yaml:"interestOverlap"`
	CityMatch           float64 `yaml:"cityMatch"`
	AvailabilityOverlap float64 `yaml:"availabilityOverlap"`
	Reliability         float64 `yaml:"reliability"`
	GraphProximity      float64 `yaml:"graphProximity"`
	GoalAlignment       float64 `yaml:"goalAlignment"`
	RedFlagPenalty      float64 `yaml:"redFlagPenalty"`
}

// LargePassWeights are the contributions of the per-pair assessment.
type LargePassWeights struct {
	ValuesOverlap       float64 `yaml:"valuesOverlap"`
	Communication       float64 `yaml:"communication"`
	AvailabilityOverlap float64 `yaml:"availabilityOverlap"`
	Reliability         float64 `yaml:"reliability"`
	RedFlagPenalty      float64 `yaml:"redFlagPenalty"` // per flag
	RedFlagPenaltyCap   float64 `yaml:"redFlagPenaltyCap"`
	Dating              float64 `yaml:"dating"`     // scale for dating additions
	Business            float64 `yaml:"business"`   // scale for business additions
	Friendship          float64 `yaml:"friendship"` // scale for friendship additions
	HighReliabilityBump float64 `yaml:"highReliabilityBump"`
	LowReliabilityDrop  float64 `yaml:"lowReliabilityDrop"`
}

// Weights bundles both passes. An overlay file may override any field.
type Weights struct {
	SmallPass SmallPassWeights `yaml:"smallPass"`
	LargePass LargePassWeights `yaml:"largePass"`
}

// DefaultWeights returns the documented scoring contributions.
func DefaultWeights() Weights {
	return Weights{
		SmallPass: SmallPassWeights{
			InterestOverlap:     0.25,
			CityMatch:           0.15,
			AvailabilityOverlap: 0.15,
			Reliability:         0.10,
			GraphProximity:      0.10,
			GoalAlignment:       0.10,
			RedFlagPenalty:      0.15,
		},
		LargePass: LargePassWeights{
			ValuesOverlap:       0.25,
			Communication:       0.20,
			AvailabilityOverlap: 0.20,
			Reliability:         0.20,
			RedFlagPenalty:      0.25,
			RedFlagPenaltyCap:   0.75,
			Dating:              0.25,
			Business:            0.30,
			Friendship:          0.30,
			HighReliabilityBump: 0.10,
			LowReliabilityDrop:  0.15,
		},
	}
}

// LoadWeights reads a YAML overlay on top of the defaults.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("failed to read weights file: %w", err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("failed to parse weights file: %w", err)
	}
	return w, nil
}

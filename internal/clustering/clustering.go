// Package clustering groups biometric index points into mental states using
// k-means.
package clustering

import (
	"time"

	"github.com/justestif/go-soundtrack/internal/biometrics"
)

// Dimension names, in coordinate order.
const (
	DimFatigue  = "fatigue"
	DimCalmness = "calmness"
	DimFocus    = "focus"
	DimAnxiety  = "anxiety"
)

var dimensions = []string{DimFatigue, DimCalmness, DimFocus, DimAnxiety}

// State is a run of index points that cluster together.
type State struct {
	Mood      string                  `json:"mood"`
	Points    []biometrics.IndexPoint `json:"points"`
	Centroid  map[string]float64      `json:"centroid"` // normalized to [0, 1] per dimension
	StartTime time.Time               `json:"startTime"`
	EndTime   time.Time               `json:"endTime"`
}

// StateConfig holds clustering parameters.
type StateConfig struct {
	NumClusters    int // number of clusters to create (default: 3)
	MinClusterSize int // smaller clusters become outliers
}

// DefaultStateConfig returns the recommended default configuration.
func DefaultStateConfig() StateConfig {
	return StateConfig{
		NumClusters:    3,
		MinClusterSize: 3,
	}
}

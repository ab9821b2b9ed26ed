package clustering

import "github.com/muesli/clusters"

// dimensionMoods names a state after its dominant dimension.
var dimensionMoods = map[string]string{
	DimFatigue:  "tired",
	DimCalmness: "calm",
	DimFocus:    "focused",
	DimAnxiety:  "anxious",
}

// moodForCentroid picks the mood of the largest normalized dimension.
// Ties go to the earlier dimension in coordinate order.
func moodForCentroid(centroid map[string]float64) string {
	best := dimensions[0]
	for _, name := range dimensions[1:] {
		if centroid[name] > centroid[best] {
			best = name
		}
	}
	return dimensionMoods[best]
}

func moodForCoords(c clusters.Coordinates) string {
	centroid := make(map[string]float64, len(dimensions))
	for i, name := range dimensions {
		centroid[name] = c[i]
	}
	return moodForCentroid(centroid)
}

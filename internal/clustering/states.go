package clustering

import (
	"log"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-soundtrack/internal/biometrics"
)

// pointObservation wraps an index point to implement clusters.Observation.
type pointObservation struct {
	point  *biometrics.IndexPoint
	coords clusters.Coordinates
}

func (o pointObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o pointObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectStates clusters points by their normalized indices. It returns the
// states ordered by first appearance and the points that fell into clusters
// smaller than cfg.MinClusterSize.
func DetectStates(points []biometrics.IndexPoint, cfg StateConfig) ([]State, []biometrics.IndexPoint) {
	if len(points) == 0 {
		return nil, nil
	}
	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultStateConfig().NumClusters
	}

	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b biometrics.IndexPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	if len(sorted) < cfg.NumClusters {
		return nil, sorted
	}

	coords := normalize(sorted)
	var obs clusters.Observations
	for i := range sorted {
		obs = append(obs, pointObservation{point: &sorted[i], coords: coords[i]})
	}

	result, err := kmeans.New().Partition(obs, cfg.NumClusters)
	if err != nil {
		log.Printf("clustering: k-means failed: %v", err)
		return nil, sorted
	}

	var states []State
	var outliers []biometrics.IndexPoint
	for _, cluster := range result {
		var members []biometrics.IndexPoint
		for _, o := range cluster.Observations {
			if po, ok := o.(pointObservation); ok {
				members = append(members, *po.point)
			}
		}
		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinClusterSize {
			outliers = append(outliers, members...)
			continue
		}

		slices.SortStableFunc(members, func(a, b biometrics.IndexPoint) int {
			return a.Timestamp.Compare(b.Timestamp)
		})

		centroid := make(map[string]float64, len(dimensions))
		for i, name := range dimensions {
			centroid[name] = cluster.Center[i]
		}

		states = append(states, State{
			Mood:      moodForCentroid(centroid),
			Points:    members,
			Centroid:  centroid,
			StartTime: members[0].Timestamp,
			EndTime:   members[len(members)-1].Timestamp,
		})
	}

	slices.SortFunc(states, func(a, b State) int {
		return a.StartTime.Compare(b.StartTime)
	})
	slices.SortStableFunc(outliers, func(a, b biometrics.IndexPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return states, outliers
}

// CurrentMood returns the mood of the most recent point: the mood of its
// state when it belongs to one, otherwise its own dominant normalized index.
// It reports false when there are fewer than two points to compare.
func CurrentMood(points []biometrics.IndexPoint, cfg StateConfig) (string, bool) {
	if len(points) < 2 {
		return "", false
	}

	latest := slices.MaxFunc(points, func(a, b biometrics.IndexPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	states, _ := DetectStates(points, cfg)
	for _, s := range states {
		if s.EndTime.Equal(latest.Timestamp) {
			return s.Mood, true
		}
	}

	coords := normalize(points)
	for i, p := range points {
		if p.Timestamp.Equal(latest.Timestamp) {
			return moodForCoords(coords[i]), true
		}
	}
	return "", false
}

// normalize min-max scales each dimension across points to [0, 1]. A
// dimension with no spread maps to 0.
func normalize(points []biometrics.IndexPoint) []clusters.Coordinates {
	raw := make([]clusters.Coordinates, len(points))
	for i, p := range points {
		raw[i] = clusters.Coordinates{p.Fatigue, p.Calmness, p.Focus, p.Anxiety}
	}

	for d := range dimensions {
		lo, hi := raw[0][d], raw[0][d]
		for _, c := range raw[1:] {
			lo = min(lo, c[d])
			hi = max(hi, c[d])
		}
		span := hi - lo
		for _, c := range raw {
			if span > 0 {
				c[d] = (c[d] - lo) / span
			} else {
				c[d] = 0
			}
		}
	}
	return raw
}

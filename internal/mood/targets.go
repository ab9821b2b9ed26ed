package mood

// AudioTargets are the catalog tuning values used to seed recommendations.
// Nil fields are left for the catalog to decide.
type AudioTargets struct {
	Valence      float64
	Energy       float64
	Danceability *float64
	Acousticness *float64
}

// Neutral is the mood used when a label has no targets of its own.
const Neutral = "neutral"

func ptr(v float64) *float64 { return &v }

var targets = map[string]AudioTargets{
	"happy":     {Valence: 0.8, Energy: 0.6},
	"calm":      {Valence: 0.5, Energy: 0.3, Acousticness: ptr(0.7)},
	"energetic": {Valence: 0.7, Energy: 0.9, Danceability: ptr(0.8)},
	"focused":   {Valence: 0.5, Energy: 0.5, Acousticness: ptr(0.6)},
	"relaxed":   {Valence: 0.6, Energy: 0.2, Acousticness: ptr(0.8)},
	Neutral:     {Valence: 0.5, Energy: 0.5},
}

// Targets returns the audio targets for mood, falling back to Neutral.
func Targets(mood string) AudioTargets {
	if t, ok := targets[Normalize(mood)]; ok {
		return t
	}
	return targets[Neutral]
}

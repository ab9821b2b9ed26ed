package mood

// tagMoods maps listener tags to the mood labels used across the app.
// FromTags picks the first tag in a list that has an entry here.
var tagMoods = map[string]string{
	"chill":         "calm",
	"chillout":      "calm",
	"calm":          "calm",
	"ambient":       "calm",
	"mellow":        "relaxed",
	"relaxing":      "relaxed",
	"relax":         "relaxed",
	"sleep":         "tired",
	"lullaby":       "tired",
	"happy":         "happy",
	"feel good":     "happy",
	"upbeat":        "happy",
	"sad":           "sad",
	"melancholy":    "sad",
	"melancholic":   "sad",
	"energetic":     "energetic",
	"party":         "energetic",
	"workout":       "energetic",
	"dance":         "energetic",
	"focus":         "focused",
	"study":         "focused",
	"concentration": "focused",
	"instrumental":  "focused",
	"dark":          "anxious",
	"tense":         "anxious",
	"aggressive":    "anxious",
}

// FromTags returns the mood of the first tag that maps to one.
// Tags are expected in descending popularity order.
func FromTags(tags []string) (string, bool) {
	for _, tag := range tags {
		if m, ok := tagMoods[Normalize(tag)]; ok {
			return m, true
		}
	}
	return "", false
}

// Package mood maps free-text mood labels to display styles and music targets.
package mood

import "strings"

// ColorSet is the style triple used to render a mood badge.
type ColorSet struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
	Border     string `json:"border"`
}

// fallbackColors is returned for moods not in the table.
var fallbackColors = ColorSet{
	Background: "bg-primary/10",
	Text:       "text-primary",
	Border:     "border-primary/20",
}

var colors = map[string]ColorSet{
	"anxious":   {Background: "bg-orange-500/20", Text: "text-orange-600", Border: "border-orange-500/40"},
	"tired":     {Background: "bg-purple-500/20", Text: "text-purple-600", Border: "border-purple-500/40"},
	"calm":      {Background: "bg-blue-500/20", Text: "text-blue-600", Border: "border-blue-500/40"},
	"focused":   {Background: "bg-green-500/20", Text: "text-green-600", Border: "border-green-500/40"},
	"happy":     {Background: "bg-yellow-500/20", Text: "text-yellow-600", Border: "border-yellow-500/40"},
	"sad":       {Background: "bg-indigo-500/20", Text: "text-indigo-600", Border: "border-indigo-500/40"},
	"energetic": {Background: "bg-red-500/20", Text: "text-red-600", Border: "border-red-500/40"},
	"relaxed":   {Background: "bg-teal-500/20", Text: "text-teal-600", Border: "border-teal-500/40"},
}

// Normalize lowercases and trims a mood label.
func Normalize(mood string) string {
	return strings.ToLower(strings.TrimSpace(mood))
}

// Colors returns the style triple for mood. Lookup is case-insensitive and
// ignores surrounding whitespace; unknown moods get a neutral fallback.
func Colors(mood string) ColorSet {
	if c, ok := colors[Normalize(mood)]; ok {
		return c
	}
	return fallbackColors
}

// Known reports whether mood has a dedicated color entry.
func Known(mood string) bool {
	_, ok := colors[Normalize(mood)]
	return ok
}

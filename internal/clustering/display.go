package clustering

import (
	"fmt"
	"strings"

	"github.com/justestif/go-soundtrack/internal/biometrics"
)

const timeFormat = "15:04"

// FormatStateSummary returns a human-readable summary of detected states.
// Outliers are summarized by count only.
func FormatStateSummary(states []State, outliers []biometrics.IndexPoint) string {
	var sb strings.Builder

	total := len(outliers)
	for _, s := range states {
		total += len(s.Points)
	}

	if len(states) == 0 {
		fmt.Fprintf(&sb, "No states found from %d readings", total)
		if len(outliers) > 0 {
			fmt.Fprintf(&sb, " (%d outliers skipped)", len(outliers))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	stateWord := "state"
	if len(states) > 1 {
		stateWord = "states"
	}
	fmt.Fprintf(&sb, "Found %d %s from %d readings", len(states), stateWord, total)
	if len(outliers) > 0 {
		fmt.Fprintf(&sb, " (%d outliers skipped)", len(outliers))
	}
	sb.WriteString("\n")

	for i, s := range states {
		readingWord := "reading"
		if len(s.Points) > 1 {
			readingWord = "readings"
		}
		fmt.Fprintf(&sb, "  %d. %s %s to %s (%d %s)\n",
			i+1, s.Mood,
			s.StartTime.Format(timeFormat), s.EndTime.Format(timeFormat),
			len(s.Points), readingWord)
	}

	return sb.String()
}

package spotify

import (
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

const (
	// DefaultMatchScore is the score given to search results.
	DefaultMatchScore = 85

	// DefaultMood tags songs whose mood has not been derived.
	DefaultMood = "calm"

	placeholderImage = "/placeholder.svg"
)

// Song is the uniform view of a catalog track.
type Song struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Duration   string `json:"duration"`
	MatchScore int    `json:"matchScore"`
	Mood       string `json:"mood"`
	ImageURL   string `json:"imageUrl"`
	SpotifyURL string `json:"spotifyUrl"`
}

// ConvertTrack reshapes a catalog track. An empty mood uses DefaultMood.
func ConvertTrack(track spotify.FullTrack, matchScore int, mood string) Song {
	artists := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		artists[i] = a.Name
	}

	image := placeholderImage
	if len(track.Album.Images) > 0 && track.Album.Images[0].URL != "" {
		image = track.Album.Images[0].URL
	}

	if mood == "" {
		mood = DefaultMood
	}

	return Song{
		ID:         track.ID.String(),
		Title:      track.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      track.Album.Name,
		Duration:   FormatDuration(int(track.Duration)),
		MatchScore: matchScore,
		Mood:       mood,
		ImageURL:   image,
		SpotifyURL: track.ExternalURLs["spotify"],
	}
}

// FormatDuration renders milliseconds as M:SS.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// recommendationScore ranks the i-th recommendation, never below 70.
func recommendationScore(i int) int {
	return max(70, 95-2*i)
}

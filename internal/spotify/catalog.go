package spotify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-soundtrack/internal/mood"
)

const (
	// DefaultSearchLimit is the number of search results returned when unset.
	DefaultSearchLimit = 10

	recommendationLimit = 20
	maxSeedGenres       = 3
)

// DefaultGenres seed recommendations when the caller supplies none.
var DefaultGenres = []string{"ambient", "classical", "electronic"}

var (
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrTrackNotFound is returned when the catalog has no such track.
	ErrTrackNotFound = errors.New("track not found")
)

// Search finds tracks matching q. Every result gets DefaultMatchScore.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]Song, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	result, err := c.api.Search(ctx, q, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	songs := []Song{}
	if result.Tracks == nil {
		return songs, nil
	}
	for _, t := range result.Tracks.Tracks {
		songs = append(songs, ConvertTrack(t, DefaultMatchScore, ""))
	}
	return songs, nil
}

// Recommendations returns tracks tuned to mood, seeded by at most three
// genres. Earlier results score higher.
func (c *Client) Recommendations(ctx context.Context, moodLabel string, genres []string) ([]Song, error) {
	seeds := spotify.Seeds{Genres: seedGenres(genres)}

	recs, err := c.api.GetRecommendations(ctx, seeds, trackAttributes(mood.Targets(moodLabel)), spotify.Limit(recommendationLimit))
	if err != nil {
		return nil, fmt.Errorf("getting recommendations: %w", err)
	}
	if len(recs.Tracks) == 0 {
		return []Song{}, nil
	}

	// Recommendations carry simplified tracks; fetch the full ones for album art.
	ids := make([]spotify.ID, len(recs.Tracks))
	for i, t := range recs.Tracks {
		ids[i] = t.ID
	}
	tracks, err := c.api.GetTracks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching recommended tracks: %w", err)
	}

	label := mood.Normalize(moodLabel)
	songs := make([]Song, 0, len(tracks))
	for _, t := range tracks {
		if t == nil {
			continue
		}
		songs = append(songs, ConvertTrack(*t, recommendationScore(len(songs)), label))
	}
	return songs, nil
}

// Song fetches a single track by id.
func (c *Client) Song(ctx context.Context, id string) (Song, error) {
	track, err := c.api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return Song{}, fmt.Errorf("getting track %s: %w", id, err)
	}
	if track == nil {
		return Song{}, fmt.Errorf("getting track %s: %w", id, ErrTrackNotFound)
	}
	return ConvertTrack(*track, DefaultMatchScore, ""), nil
}

// seedGenres trims, drops blanks and caps at maxSeedGenres.
func seedGenres(genres []string) []string {
	var out []string
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, g)
		if len(out) == maxSeedGenres {
			break
		}
	}
	if len(out) == 0 {
		return slices.Clone(DefaultGenres)
	}
	return out
}

func trackAttributes(t mood.AudioTargets) *spotify.TrackAttributes {
	attrs := spotify.NewTrackAttributes().
		TargetValence(t.Valence).
		TargetEnergy(t.Energy)
	if t.Danceability != nil {
		attrs = attrs.TargetDanceability(*t.Danceability)
	}
	if t.Acousticness != nil {
		attrs = attrs.TargetAcousticness(*t.Acousticness)
	}
	return attrs
}

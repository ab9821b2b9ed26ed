// Package tags derives song moods from Last.fm tags.
package tags

import (
	"context"
	"log"
	"sync"

	"github.com/justestif/go-soundtrack/internal/lastfm"
	"github.com/justestif/go-soundtrack/internal/mood"
	"github.com/justestif/go-soundtrack/internal/spotify"
)

// TagSource indicates where the tags came from.
type TagSource string

const (
	// SourceLastfm means tags came from a Last.fm lookup.
	SourceLastfm TagSource = "lastfm"
	// SourceNone means no tags were found.
	SourceNone TagSource = "none"
)

// DefaultConcurrency is the worker pool size for batch lookups.
const DefaultConcurrency = 5

// Track is the minimal track info needed for a tag lookup.
type Track struct {
	ID     string
	Name   string
	Artist string
}

// TrackTags holds the tags fetched for a track.
type TrackTags struct {
	TrackID string
	Tags    []lastfm.Tag
	Source  TagSource
	Error   error // non-nil if fetching failed
}

// TagFetcher abstracts the Last.fm client for testing.
type TagFetcher interface {
	GetTags(ctx context.Context, artist, track string) ([]lastfm.Tag, error)
}

// Service fetches tags with a bounded worker pool.
type Service struct {
	fetcher     TagFetcher
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency sets the number of concurrent tag fetch operations.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a new tag service.
func NewService(fetcher TagFetcher, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchTagsForTracks fetches tags for multiple tracks concurrently.
// Results are returned in input order. Individual fetch errors are captured
// in TrackTags.Error rather than failing the batch.
func (s *Service) FetchTagsForTracks(ctx context.Context, tracks []Track) ([]TrackTags, error) {
	if len(tracks) == 0 {
		return []TrackTags{}, nil
	}

	results := make([]TrackTags, len(tracks))

	type workItem struct {
		index int
		track Track
	}
	workCh := make(chan workItem, len(tracks))
	for i, t := range tracks {
		workCh <- workItem{index: i, track: t}
	}
	close(workCh)

	var wg sync.WaitGroup
	for range min(s.concurrency, len(tracks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if err := ctx.Err(); err != nil {
					results[work.index] = TrackTags{
						TrackID: work.track.ID,
						Tags:    []lastfm.Tag{},
						Source:  SourceNone,
						Error:   err,
					}
					continue
				}
				results[work.index] = s.fetchOne(ctx, work.track)
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}

func (s *Service) fetchOne(ctx context.Context, t Track) TrackTags {
	tags, err := s.fetcher.GetTags(ctx, t.Artist, t.Name)
	switch {
	case err != nil:
		return TrackTags{TrackID: t.ID, Tags: []lastfm.Tag{}, Source: SourceNone, Error: err}
	case len(tags) == 0:
		return TrackTags{TrackID: t.ID, Tags: []lastfm.Tag{}, Source: SourceNone}
	default:
		return TrackTags{TrackID: t.ID, Tags: tags, Source: SourceLastfm}
	}
}

// TagSongs returns copies of songs with Mood derived from their tags. Songs
// whose tags name no mood, or whose lookup failed, get fallback; an empty
// fallback keeps the song's current mood.
func (s *Service) TagSongs(ctx context.Context, songs []spotify.Song, fallback string) ([]spotify.Song, error) {
	out := make([]spotify.Song, len(songs))
	copy(out, songs)
	if len(songs) == 0 {
		return out, nil
	}

	tracks := make([]Track, len(songs))
	for i, song := range songs {
		tracks[i] = Track{ID: song.ID, Name: song.Title, Artist: song.Artist}
	}

	results, err := s.FetchTagsForTracks(ctx, tracks)
	if err != nil {
		return nil, err
	}

	fallback = mood.Normalize(fallback)
	for i, r := range results {
		if r.Error != nil {
			log.Printf("tags: lookup failed for %q by %q: %v", songs[i].Title, songs[i].Artist, r.Error)
		}
		if m, ok := mood.FromTags(lastfm.Names(r.Tags)); ok {
			out[i].Mood = m
		} else if fallback != "" {
			out[i].Mood = fallback
		}
	}
	return out, nil
}

// Package soundtrack picks music for the listener's current biometric state.
package soundtrack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/justestif/go-soundtrack/internal/biometrics"
	"github.com/justestif/go-soundtrack/internal/clustering"
	"github.com/justestif/go-soundtrack/internal/mood"
	"github.com/justestif/go-soundtrack/internal/spotify"
)

// ErrNoCatalog is returned by Build when no music catalog is configured.
var ErrNoCatalog = errors.New("music catalog not configured")

// Catalog supplies mood-based recommendations. spotify.Client satisfies it.
type Catalog interface {
	Recommendations(ctx context.Context, moodLabel string, genres []string) ([]spotify.Song, error)
}

// Tagger re-labels songs from their tags. tags.Service satisfies it.
type Tagger interface {
	TagSongs(ctx context.Context, songs []spotify.Song, fallback string) ([]spotify.Song, error)
}

// Service turns biometric records into a soundtrack.
type Service struct {
	catalog Catalog
	tagger  Tagger
	cfg     clustering.StateConfig
	loc     *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithTagger enables per-song mood tagging.
func WithTagger(t Tagger) Option {
	return func(s *Service) {
		s.tagger = t
	}
}

// WithStateConfig overrides the clustering parameters.
func WithStateConfig(cfg clustering.StateConfig) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithLocation sets the zone used for series time labels.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

// New creates a soundtrack service. catalog may be nil, in which case only
// state detection is available.
func New(catalog Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		cfg:     clustering.DefaultStateConfig(),
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// States contains the outcome of state detection.
type States struct {
	States       []clustering.State `json:"states"`
	OutlierCount int                `json:"outlierCount"` // readings that fit no state
	Total        int                `json:"total"`        // readings analyzed
}

// Result is a soundtrack for the current state.
type Result struct {
	Mood   string         `json:"mood"`
	Colors mood.ColorSet  `json:"colors"`
	Songs  []spotify.Song `json:"songs"`
	// Detected is false when there were too few readings and Mood is the default.
	Detected bool `json:"detected"`
}

// DetectStates aggregates records and clusters their index points.
func (s *Service) DetectStates(records []biometrics.Record) States {
	series := biometrics.Aggregate(records, biometrics.WithLocation(s.loc))
	states, outliers := clustering.DetectStates(series.Indices, s.cfg)
	if states == nil {
		states = []clustering.State{}
	}
	return States{
		States:       states,
		OutlierCount: len(outliers),
		Total:        len(series.Indices),
	}
}

// CurrentMood returns the mood of the most recent reading, or
// spotify.DefaultMood when the records are not enough to tell.
func (s *Service) CurrentMood(records []biometrics.Record) (string, bool) {
	series := biometrics.Aggregate(records, biometrics.WithLocation(s.loc))
	if m, ok := clustering.CurrentMood(series.Indices, s.cfg); ok {
		return m, true
	}
	return spotify.DefaultMood, false
}

// Build recommends songs for the current mood. A tagging failure is logged
// and the catalog's labels are kept.
func (s *Service) Build(ctx context.Context, records []biometrics.Record, genres []string) (*Result, error) {
	if s.catalog == nil {
		return nil, ErrNoCatalog
	}

	current, detected := s.CurrentMood(records)

	songs, err := s.catalog.Recommendations(ctx, current, genres)
	if err != nil {
		return nil, fmt.Errorf("recommending for %q: %w", current, err)
	}

	if s.tagger != nil {
		tagged, err := s.tagger.TagSongs(ctx, songs, current)
		if err != nil {
			log.Printf("soundtrack: tagging songs: %v", err)
		} else {
			songs = tagged
		}
	}

	return &Result{
		Mood:     current,
		Colors:   mood.Colors(current),
		Songs:    songs,
		Detected: detected,
	}, nil
}

// Package store holds the shared view of the backend's media and biometric
// collections and refreshes them on demand.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/justestif/go-soundtrack/internal/backend"
	"github.com/justestif/go-soundtrack/internal/biometrics"
)

// ErrClosed is returned by Refresh after Close.
var ErrClosed = errors.New("store closed")

// Fetcher retrieves the two collections. backend.Client satisfies it.
type Fetcher interface {
	FetchMedia(ctx context.Context) ([]backend.MediaItem, error)
	FetchBiometrics(ctx context.Context) ([]biometrics.Record, error)
}

// Snapshot is a consistent copy of both collections.
type Snapshot struct {
	Media      []backend.MediaItem
	Biometrics []biometrics.Record
	FetchedAt  time.Time
}

// Status reports the state of the last refresh cycle.
type Status struct {
	Loading   bool
	Err       error
	FetchedAt time.Time
}

// VideoState is the phase of a video generation.
type VideoState string

// Video generation phases.
const (
	VideoIdle       VideoState = "idle"
	VideoGenerating VideoState = "generating"
	VideoComplete   VideoState = "complete"
	VideoFailed     VideoState = "failed"
)

// VideoGeneration is the UI-visible progress of a video generation.
type VideoGeneration struct {
	State    VideoState `json:"state"`
	Progress int        `json:"progress"`
	VideoURL string     `json:"videoUrl,omitempty"`
	Err      string     `json:"error,omitempty"`
}

// Store is the data-fetch layer. The zero value is not usable; call New.
type Store struct {
	fetcher Fetcher
	group   singleflight.Group

	mu         sync.RWMutex
	media      []backend.MediaItem
	biometrics []biometrics.Record
	fetchedAt  time.Time
	loading    bool
	err        error
	video      VideoGeneration
	closed     bool
}

// New creates a store that reads from fetcher.
func New(fetcher Fetcher) *Store {
	return &Store{
		fetcher:    fetcher,
		media:      []backend.MediaItem{},
		biometrics: []biometrics.Record{},
		video:      VideoGeneration{State: VideoIdle},
	}
}

// Refresh fetches both collections concurrently and publishes them together.
// Concurrent callers share one in-flight cycle.
//
// The shared cycle does not end when the caller that started it goes away;
// each fetch is bounded by the fetcher's own timeout.
//
// A media failure is returned and recorded in Status; the previous collections
// stay visible. A biometric failure is logged and publishes an empty
// biometric collection.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loading = true
	s.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(fetchCtx)
	})
	return err
}

func (s *Store) refresh(ctx context.Context) error {
	var (
		wg         sync.WaitGroup
		media      []backend.MediaItem
		records    []biometrics.Record
		mediaErr   error
		recordsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		media, mediaErr = s.fetcher.FetchMedia(ctx)
	}()
	go func() {
		defer wg.Done()
		records, recordsErr = s.fetcher.FetchBiometrics(ctx)
	}()
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.loading = false

	if mediaErr != nil {
		s.err = fmt.Errorf("refreshing media: %w", mediaErr)
		return s.err
	}

	if recordsErr != nil {
		log.Printf("store: biometric fetch failed, continuing without biometrics: %v", recordsErr)
		records = nil
	}
	if media == nil {
		media = []backend.MediaItem{}
	}
	if records == nil {
		records = []biometrics.Record{}
	}

	s.media = media
	s.biometrics = records
	s.fetchedAt = time.Now()
	s.err = nil
	return nil
}

// Snapshot returns copies of the current collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Media:      slices.Clone(s.media),
		Biometrics: slices.Clone(s.biometrics),
		FetchedAt:  s.fetchedAt,
	}
}

// Status returns the loading flag and the last mandatory error.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{Loading: s.loading, Err: s.err, FetchedAt: s.fetchedAt}
}

// VideoGeneration returns the current video generation state.
func (s *Store) VideoGeneration() VideoGeneration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.video
}

// SetVideoGeneration replaces the video generation state.
func (s *Store) SetVideoGeneration(v VideoGeneration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video = v
}

// Close stops the store from accepting refresh results.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.loading = false
}

// Run refreshes every interval until ctx is done. A zero interval returns immediately.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				if errors.Is(err, ErrClosed) {
					return
				}
				log.Printf("store: periodic refresh failed: %v", err)
			}
		}
	}
}

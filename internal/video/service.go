// Package video runs video generation requests and tracks their progress.
package video

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-soundtrack/internal/backend"
	"github.com/justestif/go-soundtrack/internal/db"
	"github.com/justestif/go-soundtrack/internal/store"
)

// Common errors.
var (
	// ErrNoMedia is returned when a generation is requested with no media.
	ErrNoMedia = errors.New("no media selected")

	// ErrGenerationInProgress is returned while a generation is running.
	ErrGenerationInProgress = errors.New("video generation already in progress")
)

const (
	// DefaultTickInterval is how often simulated progress advances.
	DefaultTickInterval = 200 * time.Millisecond

	progressStep = 5
	// progressCap is held until the backend answers.
	progressCap = 95
)

// Generator produces a video from media. backend.Client satisfies it.
type Generator interface {
	GenerateVideo(ctx context.Context, mediaIDs []string) (*backend.VideoResult, error)
}

// ProgressSink receives progress updates. store.Store satisfies it.
type ProgressSink interface {
	SetVideoGeneration(store.VideoGeneration)
}

// History records finished generations. db.VideoRepository and
// MemoryHistory satisfy it.
type History interface {
	Create(ctx context.Context, v *db.Video) error
	List(ctx context.Context, limit int) ([]db.Video, error)
}

// Service runs one generation at a time.
//
// The progress shown while generating is simulated: it advances a fixed step
// per tick and holds below 100 until the backend call returns.
type Service struct {
	gen     Generator
	sink    ProgressSink
	history History
	tick    time.Duration

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithTickInterval sets how often simulated progress advances.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithHistory replaces the default in-memory history.
func WithHistory(h History) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// New creates a video service.
func New(gen Generator, sink ProgressSink, opts ...Option) *Service {
	s := &Service{
		gen:     gen,
		sink:    sink,
		history: NewMemoryHistory(),
		tick:    DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins generating a video from mediaIDs in the background and
// returns the generation's ID. The generation is not tied to ctx's
// cancellation, only to its values.
func (s *Service) Start(ctx context.Context, mediaIDs []string) (uuid.UUID, error) {
	if len(mediaIDs) == 0 {
		return uuid.Nil, ErrNoMedia
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return uuid.Nil, ErrGenerationInProgress
	}
	s.running = true
	s.mu.Unlock()

	id := uuid.New()
	ids := append([]string(nil), mediaIDs...)
	s.sink.SetVideoGeneration(store.VideoGeneration{State: store.VideoGenerating})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.WithoutCancel(ctx), id, ids)
	}()
	return id, nil
}

func (s *Service) run(ctx context.Context, id uuid.UUID, mediaIDs []string) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	started := time.Now()

	type outcome struct {
		result *backend.VideoResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := s.gen.GenerateVideo(ctx, mediaIDs)
		done <- outcome{r, err}
	}()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	progress := 0
	for {
		select {
		case <-ticker.C:
			if progress < progressCap {
				progress = min(progress+progressStep, progressCap)
				s.sink.SetVideoGeneration(store.VideoGeneration{State: store.VideoGenerating, Progress: progress})
			}
		case out := <-done:
			finished := time.Now()
			record := &db.Video{
				ID:          id,
				MediaIDs:    mediaIDs,
				CreatedAt:   started,
				CompletedAt: &finished,
			}

			if out.err != nil {
				log.Printf("video: generation %s failed: %v", id, out.err)
				msg := out.err.Error()
				record.Status = db.VideoStatusFailed
				record.Error = &msg
				s.sink.SetVideoGeneration(store.VideoGeneration{State: store.VideoFailed, Progress: progress, Err: msg})
			} else {
				record.Status = db.VideoStatusComplete
				record.VideoURL = out.result.VideoURL
				s.sink.SetVideoGeneration(store.VideoGeneration{State: store.VideoComplete, Progress: 100, VideoURL: out.result.VideoURL})
			}

			if err := s.history.Create(ctx, record); err != nil {
				log.Printf("video: recording generation %s: %v", id, err)
			}
			return
		}
	}
}

// Reset returns the progress state to idle. It fails while a generation is running.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrGenerationInProgress
	}
	s.sink.SetVideoGeneration(store.VideoGeneration{State: store.VideoIdle})
	return nil
}

// History returns up to limit finished generations, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]db.Video, error) {
	if limit <= 0 {
		limit = 20
	}
	videos, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return videos, nil
}

// Wait blocks until any running generation finishes.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown waits for a running generation to finish and be recorded, or for
// ctx to end. Call it before closing the history store.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for video generation: %w", ctx.Err())
	}
}

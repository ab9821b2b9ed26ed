// Package checkin submits daily questionnaires and keeps a history of them.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-soundtrack/internal/backend"
	"github.com/justestif/go-soundtrack/internal/db"
)

// ErrEmptyAnswers is returned when a questionnaire has no answered questions.
var ErrEmptyAnswers = errors.New("questionnaire has no answers")

// Submitter forwards answers to the backend. backend.Client satisfies it.
type Submitter interface {
	SubmitQuestionnaire(ctx context.Context, pairs []backend.QAPair) error
}

// Recorder stores submitted check-ins. db.CheckInRepository satisfies it.
type Recorder interface {
	Create(ctx context.Context, c *db.CheckIn) error
}

// Service submits check-ins.
type Service struct {
	submitter Submitter
	recorder  Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder records every successful submission.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// New creates a check-in service.
func New(submitter Submitter, opts ...Option) *Service {
	s := &Service{submitter: submitter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit trims the answers, drops pairs with a blank question or answer and
// forwards the rest. The backend call is mandatory: its error is returned and
// nothing is recorded. Once the backend has accepted the answers the
// submission has succeeded; a recording failure is only logged.
func (s *Service) Submit(ctx context.Context, answers []backend.QAPair) (*db.CheckIn, error) {
	pairs := clean(answers)
	if len(pairs) == 0 {
		return nil, ErrEmptyAnswers
	}

	if err := s.submitter.SubmitQuestionnaire(ctx, pairs); err != nil {
		return nil, fmt.Errorf("submitting check-in: %w", err)
	}

	c := &db.CheckIn{
		ID:        uuid.New(),
		Answers:   make([]db.Answer, len(pairs)),
		CreatedAt: time.Now(),
	}
	for i, p := range pairs {
		c.Answers[i] = db.Answer{Question: p.Question, Answer: p.Answer}
	}

	if s.recorder == nil {
		return c, nil
	}
	if err := s.recorder.Create(ctx, c); err != nil {
		log.Printf("checkin: recording %s failed: %v", c.ID, err)
	}
	return c, nil
}

func clean(answers []backend.QAPair) []backend.QAPair {
	pairs := make([]backend.QAPair, 0, len(answers))
	for _, a := range answers {
		q := strings.TrimSpace(a.Question)
		ans := strings.TrimSpace(a.Answer)
		if q == "" || ans == "" {
			continue
		}
		pairs = append(pairs, backend.QAPair{Question: q, Answer: ans})
	}
	return pairs
}

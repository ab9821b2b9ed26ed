package db

import (
	"time"

	"github.com/google/uuid"
)

// Video status values.
const (
	VideoStatusComplete = "complete"
	VideoStatusFailed   = "failed"
)

// Video is a finished video generation.
type Video struct {
	ID          uuid.UUID  `json:"id"`
	MediaIDs    []string   `json:"mediaIds"`
	VideoURL    string     `json:"videoUrl"`
	Status      string     `json:"status"`
	Error       *string    `json:"error,omitempty"` // nullable
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"` // nullable
}

// Answer is one question and its answer.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CheckIn is a submitted questionnaire.
type CheckIn struct {
	ID        uuid.UUID `json:"id"`
	Answers   []Answer  `json:"answers"`
	CreatedAt time.Time `json:"createdAt"`
}

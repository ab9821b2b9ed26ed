package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// openTestDB connects to TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := New(ctx, url)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(database.Close)

	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	// Migrations are idempotent.
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error: %v", err)
	}
	return database
}

func TestVideoRepository(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	done := time.Now().UTC().Truncate(time.Second)
	v := &Video{
		MediaIDs:    []string{"m1", "m2"},
		VideoURL:    "https://example.com/video.mp4",
		Status:      VideoStatusComplete,
		CreatedAt:   done.Add(-10 * time.Second),
		CompletedAt: &done,
	}
	if err := database.Videos().Create(ctx, v); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if v.ID == uuid.Nil {
		t.Fatal("Create() did not assign an ID")
	}

	videos, err := database.Videos().List(ctx, 50)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	var found bool
	for _, got := range videos {
		if got.ID == v.ID {
			found = true
			if len(got.MediaIDs) != 2 || got.VideoURL != v.VideoURL {
				t.Errorf("List() returned %+v", got)
			}
		}
	}
	if !found {
		t.Error("created video not listed")
	}
}

func TestCheckInRepository(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	c := &CheckIn{Answers: []Answer{{Question: "How did you sleep?", Answer: "Well"}}}
	if err := database.CheckIns().Create(ctx, c); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if c.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	got, err := database.CheckIns().Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got.Answers) != 1 || got.Answers[0] != c.Answers[0] {
		t.Errorf("Get() answers = %+v, want %+v", got.Answers, c.Answers)
	}

	if _, err := database.CheckIns().Get(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() unknown id error = %v, want ErrNotFound", err)
	}

	list, err := database.CheckIns().List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) == 0 {
		t.Error("List() returned no check-ins")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New(context.Background(), "postgres://user@localhost:notaport/db"); err == nil {
		t.Error("New() error = nil, want parse error")
	}
}

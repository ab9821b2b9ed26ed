package tags

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/go-soundtrack/internal/lastfm"
	"github.com/justestif/go-soundtrack/internal/spotify"
)

// stubLastfm answers GetTags from a fixed table keyed by "artist - track".
type stubLastfm struct {
	tags    map[string][]lastfm.Tag
	failing map[string]error
	latency time.Duration
	calls   atomic.Int32
}

func newStubLastfm() *stubLastfm {
	return &stubLastfm{
		tags:    map[string][]lastfm.Tag{},
		failing: map[string]error{},
	}
}

func songKey(artist, track string) string { return artist + " - " + track }

func (s *stubLastfm) tag(artist, track string, names ...string) {
	tags := make([]lastfm.Tag, len(names))
	for i, n := range names {
		tags[i] = lastfm.Tag{Name: n, Count: 100 - i*10}
	}
	s.tags[songKey(artist, track)] = tags
}

func (s *stubLastfm) GetTags(ctx context.Context, artist, track string) ([]lastfm.Tag, error) {
	s.calls.Add(1)
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	key := songKey(artist, track)
	if err, ok := s.failing[key]; ok {
		return nil, err
	}
	return s.tags[key], nil
}

// playlist builds n tracks for the same focus song, as a soundtrack of
// repeated recommendations would.
func playlist(n int) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = Track{ID: fmt.Sprintf("weightless-%d", i), Name: "Weightless", Artist: "Marconi Union"}
	}
	return tracks
}

func TestFetchTagsForTracks(t *testing.T) {
	lfm := newStubLastfm()
	lfm.tag("Marconi Union", "Weightless", "ambient", "chill")
	lfm.tag("Brian Eno", "An Ending (Ascent)", "focus")
	lfm.tag("Pharrell Williams", "Happy", "happy", "pop")
	lfm.failing[songKey("Nils Frahm", "Says")] = errors.New("lastfm: status 503")

	tracks := []Track{
		{ID: "calm-1", Name: "Weightless", Artist: "Marconi Union"},
		{ID: "focus-1", Name: "An Ending (Ascent)", Artist: "Brian Eno"},
		{ID: "happy-1", Name: "Happy", Artist: "Pharrell Williams"},
		{ID: "bare-1", Name: "Untitled #3", Artist: "Sigur Rós"},
		{ID: "down-1", Name: "Says", Artist: "Nils Frahm"},
	}

	got, err := NewService(lfm, WithConcurrency(2)).FetchTagsForTracks(context.Background(), tracks)
	if err != nil {
		t.Fatalf("FetchTagsForTracks() error = %v", err)
	}
	if len(got) != len(tracks) {
		t.Fatalf("got %d results, want %d", len(got), len(tracks))
	}

	tests := []struct {
		id       string
		firstTag string
		source   TagSource
		wantErr  bool
	}{
		{"calm-1", "ambient", SourceLastfm, false},
		{"focus-1", "focus", SourceLastfm, false},
		{"happy-1", "happy", SourceLastfm, false},
		{"bare-1", "", SourceNone, false},
		{"down-1", "", SourceNone, true},
	}
	for i, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r := got[i]
			if r.TrackID != tt.id {
				t.Errorf("TrackID = %q, want %q (order lost)", r.TrackID, tt.id)
			}
			if r.Source != tt.source {
				t.Errorf("Source = %q, want %q", r.Source, tt.source)
			}
			if (r.Error != nil) != tt.wantErr {
				t.Errorf("Error = %v, wantErr %v", r.Error, tt.wantErr)
			}
			if r.Tags == nil {
				t.Errorf("Tags = nil, want non-nil slice")
			}
			if tt.firstTag == "" {
				if len(r.Tags) != 0 {
					t.Errorf("Tags = %v, want none", r.Tags)
				}
				return
			}
			if len(r.Tags) == 0 || r.Tags[0].Name != tt.firstTag {
				t.Errorf("Tags = %v, want first %q", r.Tags, tt.firstTag)
			}
		})
	}
}

func TestFetchTagsForTracks_Empty(t *testing.T) {
	lfm := newStubLastfm()
	got, err := NewService(lfm).FetchTagsForTracks(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchTagsForTracks(nil) error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("FetchTagsForTracks(nil) = %v, want empty slice", got)
	}
	if lfm.calls.Load() != 0 {
		t.Errorf("Last.fm called %d times for no tracks", lfm.calls.Load())
	}
}

func TestFetchTagsForTracks_CancelMidBatch(t *testing.T) {
	lfm := newStubLastfm()
	lfm.latency = 100 * time.Millisecond
	lfm.tag("Marconi Union", "Weightless", "chill")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	got, err := NewService(lfm, WithConcurrency(2)).FetchTagsForTracks(ctx, playlist(10))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(got) != 10 {
		t.Fatalf("got %d results, want 10 even when cancelled", len(got))
	}
	for _, r := range got {
		if r.Source != SourceNone || r.Error == nil {
			t.Errorf("%s: source %q error %v, want none with error", r.TrackID, r.Source, r.Error)
		}
	}
}

func TestFetchTagsForTracks_RunsInParallel(t *testing.T) {
	lfm := newStubLastfm()
	lfm.latency = 10 * time.Millisecond
	lfm.tag("Marconi Union", "Weightless", "chill")

	start := time.Now()
	if _, err := NewService(lfm, WithConcurrency(10)).FetchTagsForTracks(context.Background(), playlist(20)); err != nil {
		t.Fatalf("FetchTagsForTracks() error = %v", err)
	}

	// Two rounds of 10 lookups; one at a time would take 200ms.
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("20 lookups took %v, want parallel execution", elapsed)
	}
	if n := lfm.calls.Load(); n != 20 {
		t.Errorf("Last.fm calls = %d, want 20", n)
	}
}

func TestWithConcurrency(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"default", nil, DefaultConcurrency},
		{"explicit", []Option{WithConcurrency(8)}, 8},
		{"zero ignored", []Option{WithConcurrency(0)}, DefaultConcurrency},
		{"negative ignored", []Option{WithConcurrency(-3)}, DefaultConcurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewService(newStubLastfm(), tt.opts...).concurrency; got != tt.want {
				t.Errorf("concurrency = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTagSongs(t *testing.T) {
	lfm := newStubLastfm()
	lfm.tag("Marconi Union", "Weightless", "Ambient", "electronic")
	lfm.tag("Pharrell Williams", "Happy", "pop", "happy")
	lfm.tag("Unknown", "Untagged", "seen live")
	lfm.failing[songKey("Broken", "Song")] = errors.New("lastfm: status 500")

	songs := []spotify.Song{
		{ID: "s1", Title: "Weightless", Artist: "Marconi Union", Mood: spotify.DefaultMood},
		{ID: "s2", Title: "Happy", Artist: "Pharrell Williams", Mood: spotify.DefaultMood},
		{ID: "s3", Title: "Untagged", Artist: "Unknown", Mood: spotify.DefaultMood},
		{ID: "s4", Title: "Song", Artist: "Broken", Mood: spotify.DefaultMood},
	}

	svc := NewService(lfm, WithConcurrency(2))
	got, err := svc.TagSongs(context.Background(), songs, "Focused")
	if err != nil {
		t.Fatalf("TagSongs() unexpected error: %v", err)
	}

	want := []string{"calm", "happy", "focused", "focused"}
	for i, w := range want {
		if got[i].Mood != w {
			t.Errorf("song %s mood = %q, want %q", got[i].ID, got[i].Mood, w)
		}
	}

	// Input is untouched.
	if songs[1].Mood != spotify.DefaultMood {
		t.Errorf("input song mutated: %q", songs[1].Mood)
	}
}

func TestTagSongs_EmptyFallbackKeepsMood(t *testing.T) {
	svc := NewService(newStubLastfm())
	songs := []spotify.Song{{ID: "s1", Title: "T", Artist: "A", Mood: "relaxed"}}

	got, err := svc.TagSongs(context.Background(), songs, "")
	if err != nil {
		t.Fatalf("TagSongs() unexpected error: %v", err)
	}
	if got[0].Mood != "relaxed" {
		t.Errorf("mood = %q, want relaxed", got[0].Mood)
	}
}

func TestTagSongs_Empty(t *testing.T) {
	got, err := NewService(newStubLastfm()).TagSongs(context.Background(), nil, "calm")
	if err != nil {
		t.Fatalf("TagSongs() unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("TagSongs(nil) = %v, want empty slice", got)
	}
}

func TestTagSongs_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	songs := []spotify.Song{{ID: "s1", Title: "T", Artist: "A"}}
	if _, err := NewService(newStubLastfm()).TagSongs(ctx, songs, "calm"); !errors.Is(err, context.Canceled) {
		t.Errorf("TagSongs() error = %v, want context.Canceled", err)
	}
}

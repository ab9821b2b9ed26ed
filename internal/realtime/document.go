// Package realtime watches the live media feed and surfaces each fully
// enriched document once.
package realtime

import (
	"context"
	"fmt"
	"time"
)

// MediaDocument is the live-feed view of a media item.
type MediaDocument struct {
	ID         string `json:"id"`
	Song       string `json:"song"`
	SongArtist string `json:"song_artist"`
	Embed      string `json:"embed"`
	CreatedAt  string `json:"created_at"`
	UserMood   string `json:"user_mood,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// Ready reports whether the backend has finished matching a song to the item.
func (d MediaDocument) Ready() bool {
	return d.Song != "" && d.SongArtist != "" && d.Embed != ""
}

// ChangeKind is the type of a feed notification.
type ChangeKind int

// Change kinds.
const (
	Added ChangeKind = iota
	Modified
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is one document change within a notification.
type Change struct {
	Kind ChangeKind
	Doc  MediaDocument
}

// Source delivers feed notifications.
//
// Watch blocks until ctx is cancelled or the subscription fails, calling fn
// once per notification. Calls to fn never overlap. Watch returns nil when
// stopped through ctx.
type Source interface {
	Watch(ctx context.Context, fn func([]Change)) error
}

// documentFromData builds a MediaDocument from a loosely typed document body.
func documentFromData(id string, data map[string]any) MediaDocument {
	return MediaDocument{
		ID:         id,
		Song:       stringField(data, "song"),
		SongArtist: stringField(data, "song_artist"),
		Embed:      stringField(data, "embed"),
		CreatedAt:  stringField(data, "created_at"),
		UserMood:   stringField(data, "user_mood"),
		Summary:    stringField(data, "summary"),
	}
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

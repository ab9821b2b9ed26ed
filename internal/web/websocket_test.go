package web

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/justestif/go-soundtrack/internal/realtime"
)

func dialLatest(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(url, "http")+"/ws/latest", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readDoc(t *testing.T, conn *websocket.Conn) realtime.MediaDocument {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var doc realtime.MediaDocument
	if err := wsjson.Read(ctx, conn, &doc); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return doc
}

func waitForSubscribers(t *testing.T, feed *fakeFeed, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for feed.subscribers() < n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", feed.subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLatestSocket(t *testing.T) {
	feed := &fakeFeed{}
	feed.publish(realtime.MediaDocument{ID: "d1", Song: "One", SongArtist: "A", Embed: "e1"})
	ts := newTestServer(t, Deps{Store: newTestStore(t, &fakeFetcher{}), Feed: feed})

	conn := dialLatest(t, ts.URL)

	if got := readDoc(t, conn); got.ID != "d1" {
		t.Errorf("first document = %q, want current latest d1", got.ID)
	}

	waitForSubscribers(t, feed, 1)
	feed.publish(realtime.MediaDocument{ID: "d2", Song: "Two", SongArtist: "B", Embed: "e2"})

	if got := readDoc(t, conn); got.ID != "d2" || got.Song != "Two" {
		t.Errorf("pushed document = %+v, want d2", got)
	}
}

func TestLatestSocket_ClosedOnShutdown(t *testing.T) {
	feed := &fakeFeed{}
	srv, err := NewServer(ServerConfig{Deps: Deps{Store: newTestStore(t, &fakeFetcher{}), Feed: feed}})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	ts := newHTTPTestServer(t, srv)

	conn := dialLatest(t, ts.URL)
	waitForSubscribers(t, feed, 1)

	srv.handlers.closeSockets()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err = conn.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusGoingAway {
		t.Errorf("close status = %v (err %v), want StatusGoingAway", status, err)
	}
}

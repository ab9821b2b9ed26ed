package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const socketWriteTimeout = 5 * time.Second

// LatestSocket streams surfaced live media to a websocket client
// (GET /ws/latest). The current latest document, if any, is sent first.
func (h *Handlers) LatestSocket(w http.ResponseWriter, r *http.Request) {
	if h.deps.Feed == nil {
		http.Error(w, "live feed not configured", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("ws accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	docs, unsubscribe := h.deps.Feed.Subscribe()
	defer unsubscribe()

	// The client only listens; CloseRead handles control frames and
	// cancels ctx once the peer goes away.
	ctx := conn.CloseRead(context.Background())

	var lastID string
	if doc, ok := h.deps.Feed.Latest(); ok {
		if err := writeDoc(ctx, conn, doc); err != nil {
			log.Printf("ws write failed: %v", err)
			return
		}
		lastID = doc.ID
	}

	for {
		select {
		case doc, ok := <-docs:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "feed stopped")
				return
			}
			if doc.ID == lastID {
				continue
			}
			if err := writeDoc(ctx, conn, doc); err != nil {
				log.Printf("ws write failed: %v", err)
				return
			}
			lastID = doc.ID
		case <-h.shutdown:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeDoc(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, socketWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

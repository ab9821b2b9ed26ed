package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("notifier already started")
	// ErrStopped is returned when Start is called after Stop.
	ErrStopped = errors.New("notifier stopped")
)

// subscriberBuffer is the number of surfaced documents a slow subscriber may lag behind.
const subscriberBuffer = 8

// Notifier surfaces each ready document from a Source once, by id.
type Notifier struct {
	src Source

	mu      sync.Mutex
	latest  *MediaDocument
	err     error
	seen    map[string]struct{}
	subs    map[int]chan MediaDocument
	nextSub int
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a notifier over src. Call Start to begin watching.
func New(src Source) *Notifier {
	return &Notifier{
		src:  src,
		seen: make(map[string]struct{}),
		subs: make(map[int]chan MediaDocument),
	}
}

// Start begins watching in the background.
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stopped {
		return ErrStopped
	}
	if n.started {
		return ErrAlreadyStarted
	}
	n.started = true

	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})

	go func() {
		defer close(n.done)
		if err := n.src.Watch(ctx, n.handle); err != nil && ctx.Err() == nil {
			log.Printf("realtime: subscription failed: %v", err)
			n.mu.Lock()
			n.err = fmt.Errorf("watching media feed: %w", err)
			n.mu.Unlock()
		}
	}()
	return nil
}

// Stop tears down the subscription and waits for it to finish. No document
// is surfaced after Stop returns. Subscriber channels are closed.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.stopped = true
	cancel, done := n.cancel, n.done
	n.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	n.mu.Lock()
	for id, ch := range n.subs {
		close(ch)
		delete(n.subs, id)
	}
	n.mu.Unlock()
}

// Latest returns the most recently surfaced document.
func (n *Notifier) Latest() (MediaDocument, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.latest == nil {
		return MediaDocument{}, false
	}
	return *n.latest, true
}

// Err returns the subscription error, if the feed failed.
func (n *Notifier) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// Subscribe returns a channel receiving each newly surfaced document and a
// function that cancels the subscription. A subscriber that falls behind
// misses documents rather than blocking the feed.
func (n *Notifier) Subscribe() (<-chan MediaDocument, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan MediaDocument, subscriberBuffer)
	if n.stopped {
		close(ch)
		return ch, func() {}
	}

	id := n.nextSub
	n.nextSub++
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if c, ok := n.subs[id]; ok {
				close(c)
				delete(n.subs, id)
			}
		})
	}
}

func (n *Notifier) handle(changes []Change) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stopped {
		return
	}

	for _, c := range changes {
		if c.Kind != Added && c.Kind != Modified {
			continue
		}
		if !c.Doc.Ready() {
			continue
		}
		if _, ok := n.seen[c.Doc.ID]; ok {
			continue
		}
		n.seen[c.Doc.ID] = struct{}{}

		doc := c.Doc
		n.latest = &doc
		for _, ch := range n.subs {
			select {
			case ch <- doc:
			default:
			}
		}
	}
}

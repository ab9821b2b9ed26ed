package tags

import (
	"context"
	"errors"
	"log"

	"github.com/justestif/go-soundtrack/internal/lastfm"
	"github.com/justestif/go-soundtrack/internal/tagcache"
)

// TagStore persists tag names between runs. *tagcache.Cache satisfies it.
type TagStore interface {
	Get(key string) ([]string, error)
	Put(key string, tags []string) error
}

// CachedTagFetcher checks a TagStore before falling back to the wrapped
// fetcher, and stores what it fetches.
type CachedTagFetcher struct {
	store   TagStore
	fetcher TagFetcher
}

// NewCachedTagFetcher wraps fetcher with store.
func NewCachedTagFetcher(store TagStore, fetcher TagFetcher) *CachedTagFetcher {
	return &CachedTagFetcher{store: store, fetcher: fetcher}
}

// GetTags implements TagFetcher. Store failures are logged and bypassed.
func (c *CachedTagFetcher) GetTags(ctx context.Context, artist, track string) ([]lastfm.Tag, error) {
	key := tagcache.Key(artist, track)

	names, err := c.store.Get(key)
	if err == nil {
		tags := make([]lastfm.Tag, len(names))
		for i, n := range names {
			tags[i] = lastfm.Tag{Name: n}
		}
		return tags, nil
	}
	if !errors.Is(err, tagcache.ErrMiss) {
		log.Printf("tags: cache read failed for %q: %v", key, err)
	}

	tags, err := c.fetcher.GetTags(ctx, artist, track)
	if err != nil {
		return nil, err
	}

	if err := c.store.Put(key, lastfm.Names(tags)); err != nil {
		log.Printf("tags: cache write failed for %q: %v", key, err)
	}
	return tags, nil
}

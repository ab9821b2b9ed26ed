// Package tagcache persists Last.fm tag lookups on disk so restarts do not
// re-query tags for songs already seen.
package tagcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
)

// DefaultTTL is how long cached tags stay valid.
const DefaultTTL = 30 * 24 * time.Hour

// ErrMiss is returned by Get when no fresh entry exists.
var ErrMiss = errors.New("tag cache miss")

// Cache is a badger-backed tag store. Values are zstd-compressed JSON.
type Cache struct {
	db      *badger.DB
	ttl     time.Duration
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// Open opens (or creates) a cache in dir.
func Open(dir string, opts ...Option) (*Cache, error) {
	return open(badger.DefaultOptions(dir), opts...)
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory(opts ...Option) (*Cache, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), opts...)
}

func open(bopts badger.Options, opts ...Option) (*Cache, error) {
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening tag cache: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	c := &Cache{db: db, ttl: DefaultTTL, encoder: encoder, decoder: decoder}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Key builds the cache key for a track.
func Key(artist, track string) string {
	return strings.ToLower(strings.TrimSpace(artist)) + "\x00" + strings.ToLower(strings.TrimSpace(track))
}

// Get returns the cached tag names for key, or ErrMiss.
func (c *Cache) Get(key string) ([]string, error) {
	var compressed []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}

	raw, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing %q: %w", key, err)
	}

	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", key, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// Put stores tags under key until the TTL expires.
func (c *Cache) Put(key string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	compressed := c.encoder.EncodeAll(raw, nil)

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), compressed).WithTTL(c.ttl))
	})
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Close flushes and closes the underlying store.
func (c *Cache) Close() error {
	c.encoder.Close()
	c.decoder.Close()
	return c.db.Close()
}

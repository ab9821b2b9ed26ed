package tagcache

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func openTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	c, err := OpenInMemory(opts...)
	if err != nil {
		t.Fatalf("OpenInMemory() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_PutGet(t *testing.T) {
	c := openTestCache(t)

	tests := []struct {
		name string
		key  string
		tags []string
		want []string
	}{
		{"tags", Key("Marconi Union", "Weightless"), []string{"ambient", "chillout"}, []string{"ambient", "chillout"}},
		{"no tags", Key("Nobody", "Nothing"), nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Put(tt.key, tt.tags); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			got, err := c.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Get() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCache_Miss(t *testing.T) {
	c := openTestCache(t)
	if _, err := c.Get(Key("a", "b")); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() error = %v, want ErrMiss", err)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := openTestCache(t, WithTTL(time.Second))
	key := Key("a", "b")
	if err := c.Put(key, []string{"sad"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	// badger TTLs have one-second resolution.
	time.Sleep(2100 * time.Millisecond)

	if _, err := c.Get(key); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() after TTL error = %v, want ErrMiss", err)
	}
}

func TestCache_OnDisk(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := c.Put(Key("a", "b"), []string{"happy"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(Key("A ", "B"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !slices.Equal(got, []string{"happy"}) {
		t.Errorf("Get() = %v, want [happy]", got)
	}
}

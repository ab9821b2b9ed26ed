// Package config loads service settings from the environment and flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/justestif/go-soundtrack/internal/backend"
	"github.com/justestif/go-soundtrack/internal/realtime"
)

// DefaultAddr is the default listen address.
const DefaultAddr = "127.0.0.1:8080"

var (
	// ErrMissingSpotifyCredentials is returned when only one of SPOTIFY_ID
	// and SPOTIFY_SECRET is set.
	ErrMissingSpotifyCredentials = errors.New("SPOTIFY_ID and SPOTIFY_SECRET must be set together")

	// ErrConflictingFeeds is returned when both realtime feeds are configured.
	ErrConflictingFeeds = errors.New("configure at most one of FIRESTORE_PROJECT and MQTT_BROKER")
)

// Config holds the service configuration.
type Config struct {
	Addr            string
	BackendURL      string
	BackendTimeout  time.Duration
	RefreshInterval time.Duration // 0 disables periodic refresh

	SpotifyID     string
	SpotifySecret string
	LastfmAPIKey  string

	DatabaseURL string
	TagCacheDir string

	FirestoreProject    string
	FirestoreCollection string
	MQTTBroker          string
	MQTTTopic           string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Addr:                getEnv("SOUNDTRACK_ADDR", DefaultAddr),
		BackendURL:          getEnv("BACKEND_URL", backend.DefaultBaseURL),
		BackendTimeout:      getEnvDuration("BACKEND_TIMEOUT", backend.DefaultTimeout),
		RefreshInterval:     getEnvDuration("REFRESH_INTERVAL", 0),
		SpotifyID:           os.Getenv("SPOTIFY_ID"),
		SpotifySecret:       os.Getenv("SPOTIFY_SECRET"),
		LastfmAPIKey:        os.Getenv("LASTFM_API_KEY"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		TagCacheDir:         os.Getenv("TAG_CACHE_DIR"),
		FirestoreProject:    os.Getenv("FIRESTORE_PROJECT"),
		FirestoreCollection: getEnv("FIRESTORE_COLLECTION", realtime.DefaultCollection),
		MQTTBroker:          os.Getenv("MQTT_BROKER"),
		MQTTTopic:           getEnv("MQTT_TOPIC", realtime.DefaultTopic),
	}
}

// RegisterFlags binds command-line overrides to c. Values already in c
// become the flag defaults, so flags win over the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.StringVar(&c.BackendURL, "backend-url", c.BackendURL, "backend base URL")
	fs.DurationVar(&c.BackendTimeout, "backend-timeout", c.BackendTimeout, "backend request timeout")
	fs.DurationVar(&c.RefreshInterval, "refresh-interval", c.RefreshInterval, "periodic refresh interval (0 = manual only)")
	fs.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "Postgres URL for history")
	fs.StringVar(&c.TagCacheDir, "tag-cache-dir", c.TagCacheDir, "directory for the persistent tag cache")
	fs.StringVar(&c.FirestoreProject, "firestore-project", c.FirestoreProject, "Google Cloud project for the Firestore feed")
	fs.StringVar(&c.FirestoreCollection, "firestore-collection", c.FirestoreCollection, "Firestore collection to watch")
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker URL for the realtime feed")
	fs.StringVar(&c.MQTTTopic, "mqtt-topic", c.MQTTTopic, "MQTT topic to subscribe to")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend URL %q", c.BackendURL)
	}

	if c.BackendTimeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative")
	}

	if (c.SpotifyID == "") != (c.SpotifySecret == "") {
		return ErrMissingSpotifyCredentials
	}

	if c.FirestoreProject != "" && c.MQTTBroker != "" {
		return ErrConflictingFeeds
	}

	return nil
}

// CatalogEnabled reports whether Spotify credentials are configured.
func (c *Config) CatalogEnabled() bool {
	return c.SpotifyID != "" && c.SpotifySecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Command soundtrack runs the SoundTrack to Your Life API server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/firestore"
	flag "github.com/spf13/pflag"

	"github.com/justestif/go-soundtrack/internal/backend"
	"github.com/justestif/go-soundtrack/internal/biometrics"
	"github.com/justestif/go-soundtrack/internal/checkin"
	"github.com/justestif/go-soundtrack/internal/clustering"
	"github.com/justestif/go-soundtrack/internal/config"
	"github.com/justestif/go-soundtrack/internal/db"
	"github.com/justestif/go-soundtrack/internal/lastfm"
	"github.com/justestif/go-soundtrack/internal/realtime"
	"github.com/justestif/go-soundtrack/internal/soundtrack"
	"github.com/justestif/go-soundtrack/internal/spotify"
	"github.com/justestif/go-soundtrack/internal/store"
	"github.com/justestif/go-soundtrack/internal/tagcache"
	"github.com/justestif/go-soundtrack/internal/tags"
	"github.com/justestif/go-soundtrack/internal/video"
	"github.com/justestif/go-soundtrack/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backend and data layer
	client := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	})
	data := store.New(client)
	defer data.Close()

	if err := data.Refresh(ctx); err != nil {
		// Not fatal: the error is visible through /api/status until a
		// manual refresh succeeds.
		log.Printf("Initial fetch failed: %v", err)
	}
	snap := data.Snapshot()
	log.Printf("Loaded %d media items and %d biometric records", len(snap.Media), len(snap.Biometrics))
	logStates(snap.Biometrics)

	if cfg.RefreshInterval > 0 {
		go data.Run(ctx, cfg.RefreshInterval)
	}

	// Optional history store
	var (
		history  video.History = video.NewMemoryHistory()
		checkins []checkin.Option
	)
	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		history = database.Videos()
		checkins = append(checkins, checkin.WithRecorder(database.CheckIns()))
		log.Println("Using Postgres history")
	}

	// Runs before database.Close so a finishing generation is still recorded.
	videos := video.New(client, data, video.WithHistory(history))
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout)
		defer cancel()
		if err := videos.Shutdown(drainCtx); err != nil {
			log.Printf("Video generation not recorded: %v", err)
		}
	}()

	// Music catalog
	deps := web.Deps{
		Store:    data,
		Videos:   videos,
		CheckIns: checkin.New(client, checkins...),
	}

	var stOpts []soundtrack.Option
	if cfg.CatalogEnabled() {
		catalog, err := spotify.NewClientCredentials(ctx, cfg.SpotifyID, cfg.SpotifySecret)
		if err != nil {
			return fmt.Errorf("creating Spotify client: %w", err)
		}
		deps.Catalog = catalog

		tagger, closeTagger, err := newTagger(cfg)
		if err != nil {
			return err
		}
		defer closeTagger()
		if tagger != nil {
			stOpts = append(stOpts, soundtrack.WithTagger(tagger))
		}
	} else {
		log.Println("SPOTIFY_ID/SPOTIFY_SECRET not set; catalog routes disabled")
	}
	if deps.Catalog != nil {
		deps.Soundtrack = soundtrack.New(deps.Catalog, stOpts...)
	}

	// Live feed
	source, closeSource, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()
	if source != nil {
		notifier := realtime.New(source)
		if err := notifier.Start(ctx); err != nil {
			return fmt.Errorf("starting live feed: %w", err)
		}
		defer notifier.Stop()
		deps.Feed = notifier
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr: cfg.Addr,
		Deps: deps,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}

// newTagger builds the Last.fm song tagger, backed by the on-disk tag cache
// when one is configured. It returns a nil tagger without an API key.
func newTagger(cfg *config.Config) (*tags.Service, func(), error) {
	noop := func() {}
	if cfg.LastfmAPIKey == "" {
		log.Println("LASTFM_API_KEY not set; songs keep the requested mood")
		return nil, noop, nil
	}

	lf, err := lastfm.NewClient(lastfm.Config{APIKey: cfg.LastfmAPIKey})
	if err != nil {
		return nil, noop, fmt.Errorf("creating Last.fm client: %w", err)
	}

	if cfg.TagCacheDir == "" {
		return tags.NewService(lf), noop, nil
	}

	cache, err := tagcache.Open(cfg.TagCacheDir)
	if err != nil {
		return nil, noop, fmt.Errorf("opening tag cache: %w", err)
	}
	closeCache := func() {
		if err := cache.Close(); err != nil {
			log.Printf("Closing tag cache: %v", err)
		}
	}
	return tags.NewService(tags.NewCachedTagFetcher(cache, lf)), closeCache, nil
}

// newSource connects the configured live feed, if any.
func newSource(ctx context.Context, cfg *config.Config) (realtime.Source, func(), error) {
	switch {
	case cfg.FirestoreProject != "":
		fs, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, func() {}, fmt.Errorf("creating Firestore client: %w", err)
		}
		src := realtime.NewFirestoreSource(fs, cfg.FirestoreCollection)
		log.Printf("Watching Firestore collection %q", cfg.FirestoreCollection)
		return src, func() { fs.Close() }, nil

	case cfg.MQTTBroker != "":
		client, err := realtime.DialMQTT(cfg.MQTTBroker)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connecting to MQTT broker: %w", err)
		}
		log.Printf("Watching MQTT topic %q on %s", cfg.MQTTTopic, cfg.MQTTBroker)
		return realtime.NewMQTTSource(client, cfg.MQTTTopic), func() { client.Disconnect(250) }, nil

	default:
		log.Println("No live feed configured; /api/latest disabled")
		return nil, func() {}, nil
	}
}

func logStates(records []biometrics.Record) {
	series := biometrics.Aggregate(records)
	states, outliers := clustering.DetectStates(series.Indices, clustering.DefaultStateConfig())
	log.Print(clustering.FormatStateSummary(states, outliers))
}

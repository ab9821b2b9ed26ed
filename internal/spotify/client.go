// Package spotify reshapes Spotify catalog search and recommendation results
// into the app's song view.
package spotify

import (
	"context"
	"errors"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrMissingCredentials is returned when the client id or secret is empty.
var ErrMissingCredentials = errors.New("missing Spotify client id or secret")

// API is the subset of the Spotify Web API the catalog uses.
// *spotify.Client satisfies it.
type API interface {
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
	GetRecommendations(ctx context.Context, seeds spotify.Seeds, attrs *spotify.TrackAttributes, opts ...spotify.RequestOption) (*spotify.Recommendations, error)
	GetTrack(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullTrack, error)
	GetTracks(ctx context.Context, ids []spotify.ID, opts ...spotify.RequestOption) ([]*spotify.FullTrack, error)
}

// Client wraps the Spotify API with catalog helpers.
type Client struct {
	api API
}

// New creates a catalog client over an authenticated API.
func New(api API) *Client {
	return &Client{api: api}
}

// NewClientCredentials creates a catalog client using the client credentials
// flow. Tokens are refreshed automatically for the lifetime of ctx.
func NewClientCredentials(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return New(spotify.New(cfg.Client(ctx))), nil
}

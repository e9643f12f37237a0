// Package spotify provides a wrapper around the Spotify Web API that serves
// as the playlist selector's music backend.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-mood-companion/internal/playlist"
)

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

var _ playlist.Backend = (*Client)(nil)

// UserName returns the current user's display name, falling back to the ID.
func (c *Client) UserName(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.ID, nil
}

// SearchPlaylists searches for playlists matching query, in Spotify's order.
func (c *Client) SearchPlaylists(ctx context.Context, query string) ([]playlist.Playlist, error) {
	results, err := c.api.Search(ctx, query, spotify.SearchTypePlaylist)
	if err != nil {
		return nil, fmt.Errorf("searching playlists: %w", err)
	}
	if results.Playlists == nil {
		return []playlist.Playlist{}, nil
	}
	return convertPlaylists(results.Playlists.Playlists), nil
}

// convertPlaylists drops the empty entries Spotify returns for playlists
// that were deleted after indexing.
func convertPlaylists(in []spotify.SimplePlaylist) []playlist.Playlist {
	out := make([]playlist.Playlist, 0, len(in))
	for _, p := range in {
		if p.ID == "" || p.URI == "" {
			continue
		}
		out = append(out, playlist.Playlist{
			ID:    p.ID.String(),
			Name:  p.Name,
			URI:   string(p.URI),
			Owner: p.Owner.DisplayName,
		})
	}
	return out
}

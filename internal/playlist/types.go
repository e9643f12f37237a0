package playlist

import "context"

// Device is a playback target reported by the backend.
type Device struct {
	ID     string
	Name   string
	Type   string
	Active bool
}

// Playlist is a search result that can be played as a context.
type Playlist struct {
	ID    string
	Name  string
	URI   string
	Owner string
}

// Playback is the backend's view of what is currently playing.
type Playback struct {
	IsPlaying bool
	Track     string
	Artist    string
}

// Backend is the music service. Implemented by *spotify.Client.
type Backend interface {
	Devices(ctx context.Context) ([]Device, error)
	// SearchPlaylists returns playlists in the backend's relevance order.
	SearchPlaylists(ctx context.Context, query string) ([]Playlist, error)
	StartPlayback(ctx context.Context, contextURI, deviceID string) error
	Resume(ctx context.Context, deviceID string) error
	Pause(ctx context.Context, deviceID string) error
	// CurrentlyPlaying returns nil when nothing is loaded on any device.
	CurrentlyPlaying(ctx context.Context) (*Playback, error)
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
}

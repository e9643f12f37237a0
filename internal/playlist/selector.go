// Package playlist turns a mood into a music search, picks a playlist and
// drives playback on the resolved device.
package playlist

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/justestif/go-mood-companion/internal/llm"
	"github.com/justestif/go-mood-companion/internal/logx"
)

//go:embed prompt.tmpl
var promptTemplate string

// Sentinel errors.
var (
	// ErrSearchQueryFailed is returned when no usable search query could be generated.
	ErrSearchQueryFailed = errors.New("search query generation failed")

	// ErrBackendUnavailable is returned when the music backend keeps failing.
	ErrBackendUnavailable = errors.New("music backend unavailable")

	// ErrNoPlaylistFound is logged when a search has no results.
	ErrNoPlaylistFound = errors.New("no playlist found")

	// ErrNoDeviceResolved is logged when no playback device could be resolved.
	ErrNoDeviceResolved = errors.New("no playback device resolved")
)

// Selector owns the playback device and writes the playlist State.
type Selector struct {
	gen         llm.Generator
	backend     Backend
	state       *State
	maxAttempts int

	deviceMu sync.RWMutex
	device   *Device
}

// Option configures a Selector.
type Option func(*Selector)

// WithMaxAttempts overrides the attempt bound for query generation and search.
func WithMaxAttempts(n int) Option {
	return func(s *Selector) { s.maxAttempts = n }
}

// WithDevice presets the playback device, skipping ResolveDevice.
func WithDevice(d Device) Option {
	return func(s *Selector) { s.device = &d }
}

// NewSelector creates a selector writing into state.
func NewSelector(gen llm.Generator, backend Backend, state *State, opts ...Option) *Selector {
	s := &Selector{
		gen:         gen,
		backend:     backend,
		state:       state,
		maxAttempts: llm.DefaultAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state the selector writes to.
func (s *Selector) State() *State { return s.state }

// Device returns the resolved device, or nil.
func (s *Selector) Device() *Device {
	s.deviceMu.RLock()
	defer s.deviceMu.RUnlock()
	if s.device == nil {
		return nil
	}
	d := *s.device
	return &d
}

// ResolveDevice picks the device called name, falling back to fallbackID.
// When neither is available the device stays unset, playback operations
// become no-ops and ErrNoDeviceResolved is returned.
func (s *Selector) ResolveDevice(ctx context.Context, name, fallbackID string) error {
	devices, err := s.backend.Devices(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Listing playback devices failed")
	}
	logx.Debug().Interface("devices", devices).Msg("Playback devices")

	var found *Device
	for i := range devices {
		if name != "" && devices[i].Name == name {
			found = &devices[i]
			break
		}
	}

	if found == nil && fallbackID != "" {
		logx.Warn().Str("name", name).Str("device_id", fallbackID).Msg("Could not find device by name, using configured device id")
		found = &Device{ID: fallbackID, Name: name}
	}

	if found == nil {
		logx.Error().Str("name", name).Int("available", len(devices)).Msg("No playback device resolved, playback disabled")
		return fmt.Errorf("%w: %q", ErrNoDeviceResolved, name)
	}

	s.deviceMu.Lock()
	s.device = found
	s.deviceMu.Unlock()
	logx.Info().Str("device", found.Name).Str("device_id", found.ID).Msg("Using playback device")
	return nil
}

// SearchQueryFromMood asks the generator for a "query: reason" pair and
// stores it in the state.
func (s *Selector) SearchQueryFromMood(ctx context.Context, mood string) (string, error) {
	logx.Debug().Str("mood", mood).Msg("Getting search query based on mood")

	prompt, err := llm.RenderPrompt(ctx, promptTemplate, map[string]any{"Mood": mood})
	if err != nil {
		return "", fmt.Errorf("rendering search prompt: %w", err)
	}

	var query, reason string
	err = llm.Retry(ctx, s.maxAttempts,
		func(int) error {
			resp, err := s.gen.Generate(ctx, prompt)
			if err != nil {
				return err
			}
			logx.Debug().Str("response", resp).Msg("LLM response")
			query, reason, err = llm.SplitResponse(resp)
			return err
		},
		func(attempt int, err error) {
			logx.Warn().Err(err).Int("attempt", attempt).Msg("Search query generation failed, retrying...")
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSearchQueryFailed, err)
	}

	s.state.setQuery(query, reason)
	return query, nil
}

// FindPlaylist returns the first search result, or nil when there is none.
func (s *Selector) FindPlaylist(ctx context.Context, query string) (*Playlist, error) {
	var results []Playlist
	err := llm.Retry(ctx, s.maxAttempts,
		func(int) error {
			var err error
			results, err = s.backend.SearchPlaylists(ctx, query)
			return err
		},
		func(attempt int, err error) {
			logx.Warn().Err(err).Int("attempt", attempt).Msg("Playlist search failed, retrying...")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: searching %q: %w", ErrBackendUnavailable, query, err)
	}

	if len(results) == 0 {
		logx.Error().Err(ErrNoPlaylistFound).Str("query", query).Msg("Could not find a playlist for this search query")
		return nil, nil
	}

	p := results[0]
	logx.Debug().Str("playlist", p.Name).Str("uri", p.URI).Msg("Found playlist")
	return &p, nil
}

// StartPlaylistBasedOnMood derives a query from mood, selects the first
// matching playlist and plays it on the resolved device. A missing playlist
// or device is logged and not returned as an error.
func (s *Selector) StartPlaylistBasedOnMood(ctx context.Context, mood string) error {
	query, err := s.SearchQueryFromMood(ctx, mood)
	if err != nil {
		return err
	}

	playlist, err := s.FindPlaylist(ctx, query)
	s.state.setPlaylist(playlist)
	if err != nil {
		s.state.setTrack("", "")
		return err
	}

	device := s.Device()
	if playlist == nil || device == nil {
		logx.Error().
			Bool("playlist", playlist != nil).
			Bool("device", device != nil).
			Msg("Could not start playback as playlist or device is not present")
		// A playlist is only selected when it can be played.
		s.state.setPlaylist(nil)
		s.state.setTrack("", "")
		return nil
	}

	logx.Info().Str("playlist", playlist.Name).Str("device", device.Name).Msg("Starting playback of playlist...")
	if err := s.backend.StartPlayback(ctx, playlist.URI, device.ID); err != nil {
		return fmt.Errorf("%w: starting playback: %w", ErrBackendUnavailable, err)
	}
	// Some devices load the context paused.
	if err := s.backend.Resume(ctx, device.ID); err != nil {
		logx.Warn().Err(err).Msg("Resuming playback failed")
	}

	s.refreshTrack(ctx)
	return nil
}

// NowPlaying returns what the backend is currently playing without touching
// the state. It returns nil when no device is resolved.
func (s *Selector) NowPlaying(ctx context.Context) (*Playback, error) {
	if s.Device() == nil {
		return nil, nil
	}
	return s.backend.CurrentlyPlaying(ctx)
}

// PlayPause pauses when the backend reports playback, otherwise resumes.
func (s *Selector) PlayPause(ctx context.Context) error {
	return s.withDevice(ctx, func(d *Device, pb *Playback) error {
		if pb != nil && pb.IsPlaying {
			logx.Info().Msg("Pausing playback...")
			return s.backend.Pause(ctx, d.ID)
		}
		logx.Info().Msg("Resuming playback...")
		return s.backend.Resume(ctx, d.ID)
	})
}

// Play resumes playback unless it is already playing.
func (s *Selector) Play(ctx context.Context) error {
	return s.withDevice(ctx, func(d *Device, pb *Playback) error {
		if pb != nil && pb.IsPlaying {
			return nil
		}
		logx.Info().Msg("Resuming playback...")
		return s.backend.Resume(ctx, d.ID)
	})
}

// Pause pauses playback if anything is playing.
func (s *Selector) Pause(ctx context.Context) error {
	return s.withDevice(ctx, func(d *Device, pb *Playback) error {
		if pb == nil || !pb.IsPlaying {
			return nil
		}
		logx.Info().Msg("Pausing playback...")
		return s.backend.Pause(ctx, d.ID)
	})
}

// NextTrack skips forward when something is loaded.
func (s *Selector) NextTrack(ctx context.Context) error {
	return s.withDevice(ctx, func(d *Device, pb *Playback) error {
		if pb == nil {
			return nil
		}
		logx.Info().Msg("Skipping to next track...")
		return s.backend.Next(ctx, d.ID)
	})
}

// PreviousTrack skips back when something is loaded.
func (s *Selector) PreviousTrack(ctx context.Context) error {
	return s.withDevice(ctx, func(d *Device, pb *Playback) error {
		if pb == nil {
			return nil
		}
		logx.Info().Msg("Skipping to previous track...")
		return s.backend.Previous(ctx, d.ID)
	})
}

// withDevice re-queries playback state and runs fn, or does nothing when no
// device was resolved.
func (s *Selector) withDevice(ctx context.Context, fn func(*Device, *Playback) error) error {
	d := s.Device()
	if d == nil {
		logx.Debug().Msg("No playback device, ignoring playback command")
		return nil
	}

	pb, err := s.backend.CurrentlyPlaying(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading playback state: %w", ErrBackendUnavailable, err)
	}
	if err := fn(d, pb); err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *Selector) refreshTrack(ctx context.Context) {
	pb, err := s.backend.CurrentlyPlaying(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Reading current track failed")
		return
	}
	if pb == nil {
		s.state.setTrack("", "")
		return
	}
	s.state.setTrack(pb.Track, pb.Artist)
}

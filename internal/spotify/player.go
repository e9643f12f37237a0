package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-mood-companion/internal/playlist"
)

// Devices lists the user's available Connect devices.
func (c *Client) Devices(ctx context.Context) ([]playlist.Device, error) {
	devices, err := c.api.PlayerDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return convertDevices(devices), nil
}

func convertDevices(in []spotify.PlayerDevice) []playlist.Device {
	out := make([]playlist.Device, len(in))
	for i, d := range in {
		out[i] = playlist.Device{
			ID:     d.ID.String(),
			Name:   d.Name,
			Type:   d.Type,
			Active: d.Active,
		}
	}
	return out
}

// StartPlayback plays the context (playlist, album) on the device.
func (c *Client) StartPlayback(ctx context.Context, contextURI, deviceID string) error {
	uri := spotify.URI(contextURI)
	opts := deviceOptions(deviceID)
	opts.PlaybackContext = &uri
	if err := c.api.PlayOpt(ctx, opts); err != nil {
		return fmt.Errorf("starting playback of %s: %w", contextURI, err)
	}
	return nil
}

// Resume continues the current context on the device.
func (c *Client) Resume(ctx context.Context, deviceID string) error {
	if err := c.api.PlayOpt(ctx, deviceOptions(deviceID)); err != nil {
		return fmt.Errorf("resuming playback: %w", err)
	}
	return nil
}

// Pause pauses playback on the device.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	if err := c.api.PauseOpt(ctx, deviceOptions(deviceID)); err != nil {
		return fmt.Errorf("pausing playback: %w", err)
	}
	return nil
}

// Next skips to the next track on the device.
func (c *Client) Next(ctx context.Context, deviceID string) error {
	if err := c.api.NextOpt(ctx, deviceOptions(deviceID)); err != nil {
		return fmt.Errorf("skipping to next track: %w", err)
	}
	return nil
}

// Previous skips to the previous track on the device.
func (c *Client) Previous(ctx context.Context, deviceID string) error {
	if err := c.api.PreviousOpt(ctx, deviceOptions(deviceID)); err != nil {
		return fmt.Errorf("skipping to previous track: %w", err)
	}
	return nil
}

// CurrentlyPlaying returns the loaded track, or nil when nothing is loaded.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*playlist.Playback, error) {
	current, err := c.api.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting currently playing: %w", err)
	}
	return convertPlayback(current), nil
}

func convertPlayback(current *spotify.CurrentlyPlaying) *playlist.Playback {
	if current == nil || current.Item == nil {
		return nil
	}

	artists := make([]string, len(current.Item.Artists))
	for i, a := range current.Item.Artists {
		artists[i] = a.Name
	}

	return &playlist.Playback{
		IsPlaying: current.Playing,
		Track:     current.Item.Name,
		Artist:    strings.Join(artists, ", "),
	}
}

func deviceOptions(deviceID string) *spotify.PlayOptions {
	opts := &spotify.PlayOptions{}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}
	return opts
}

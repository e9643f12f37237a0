// Package controller coordinates mood cycles, playback commands, the status
// display and the timers that drive them.
package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-mood-companion/internal/config"
	"github.com/justestif/go-mood-companion/internal/db"
	"github.com/justestif/go-mood-companion/internal/display"
	"github.com/justestif/go-mood-companion/internal/logx"
	"github.com/justestif/go-mood-companion/internal/mood"
	"github.com/justestif/go-mood-companion/internal/playlist"
)

// SleepingMood replaces the mood during quiet hours.
const SleepingMood = "SLEEPING"

// quietRecheck is the mood timer interval while quiet hours are active.
const quietRecheck = time.Minute

// MoodEngine is implemented by *mood.Engine.
type MoodEngine interface {
	DetermineMood(ctx context.Context) (string, error)
	LastSignals() []mood.Signal
	Determining() bool
}

// Player is implemented by *playlist.Selector.
type Player interface {
	StartPlaylistBasedOnMood(ctx context.Context, mood string) error
	PlayPause(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	NextTrack(ctx context.Context) error
	PreviousTrack(ctx context.Context) error
	NowPlaying(ctx context.Context) (*playlist.Playback, error)
	Device() *playlist.Device
}

// CycleRecorder persists finished cycles. Implemented by *db.CycleRepository.
type CycleRecorder interface {
	Insert(ctx context.Context, c *db.Cycle) error
}

// Options configures a Coordinator. Engine, Player and both states are
// required.
type Options struct {
	Engine        MoodEngine
	Player        Player
	MoodState     *mood.State
	PlaylistState *playlist.State

	// Display is optional; nil disables rendering and the display timer.
	Display display.Renderer
	// Recorder is optional; nil disables history.
	Recorder CycleRecorder

	Quiet           config.QuietHours
	Keys            config.Bindings
	MoodInterval    time.Duration
	DisplayInterval time.Duration

	// Out receives the one-line summaries; defaults to os.Stdout.
	Out io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Coordinator owns the mood lock and the display lock. The mood lock is
// always taken before the display lock.
type Coordinator struct {
	engine        MoodEngine
	player        Player
	moodState     *mood.State
	playlistState *playlist.State
	display       display.Renderer
	recorder      CycleRecorder

	quiet           config.QuietHours
	keys            config.Bindings
	moodInterval    time.Duration
	displayInterval time.Duration
	out             io.Writer
	now             func() time.Time

	moodMu    sync.Mutex
	displayMu sync.Mutex
	outMu     sync.Mutex

	// actions tracks dispatched goroutines.
	actions sync.WaitGroup
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		engine:          opts.Engine,
		player:          opts.Player,
		moodState:       opts.MoodState,
		playlistState:   opts.PlaylistState,
		display:         opts.Display,
		recorder:        opts.Recorder,
		quiet:           opts.Quiet,
		keys:            opts.Keys,
		moodInterval:    opts.MoodInterval,
		displayInterval: opts.DisplayInterval,
		out:             opts.Out,
		now:             opts.Now,
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.moodInterval <= 0 {
		c.moodInterval = time.Hour
	}
	if c.displayInterval <= 0 {
		c.displayInterval = 30 * time.Second
	}
	if c.keys == (config.Bindings{}) {
		c.keys = config.DefaultBindings()
	}
	return c
}

// QuietHoursActive reports whether quiet hours apply right now.
func (c *Coordinator) QuietHoursActive() bool {
	return c.quiet.Active(c.now())
}

// DetermineMoodAndPlay runs one mood cycle under the mood lock. During quiet
// hours the mood becomes SLEEPING, the playlist is cleared and playback is
// paused without any generation calls. Errors are logged and recorded, never
// returned, so a failed cycle leaves the previous state in place.
func (c *Coordinator) DetermineMoodAndPlay(ctx context.Context, trigger string) db.Cycle {
	logx.Debug().Msg("Acquiring mood lock...")
	c.moodMu.Lock()
	defer c.moodMu.Unlock()
	logx.Debug().Msg("Mood lock acquired")

	cycle := db.Cycle{
		ID:        uuid.New(),
		Trigger:   trigger,
		StartedAt: c.now(),
	}
	id := cycle.ID.String()

	if c.QuietHoursActive() {
		cycle.Quiet = true
		c.sleep(ctx)
		logx.Info().Str("cycle_id", id).Str("trigger", trigger).Msg("Quiet hours active, sleeping")
	} else if err := c.runCycle(ctx, &cycle); err != nil {
		msg := err.Error()
		cycle.Error = &msg
		logx.Error().Err(err).Str("cycle_id", id).Str("trigger", trigger).Msg("Mood cycle failed")
	} else {
		logx.Info().Str("cycle_id", id).Str("trigger", trigger).Msg("Mood cycle finished")
	}

	moodText, moodReason := c.moodState.Snapshot()
	snap := c.playlistState.Snapshot()
	cycle.Mood, cycle.MoodReason = moodText, moodReason
	cycle.SearchQuery, cycle.SearchQueryReason = snap.SearchQuery, snap.SearchQueryReason
	if snap.Playlist != nil {
		cycle.PlaylistName = &snap.Playlist.Name
		cycle.PlaylistURI = &snap.Playlist.URI
	}

	playlistName := "None"
	if snap.Playlist != nil {
		playlistName = snap.Playlist.Name
	}
	c.printf("MOOD: %s | PLAYLIST: %s\n", moodText, playlistName)

	c.refreshDisplay(ctx)

	cycle.FinishedAt = c.now()
	c.record(ctx, &cycle)
	return cycle
}

func (c *Coordinator) runCycle(ctx context.Context, cycle *db.Cycle) error {
	newMood, err := c.engine.DetermineMood(ctx)
	for _, sig := range c.engine.LastSignals() {
		cycle.Signals = append(cycle.Signals, db.Signal{Topic: sig.Topic, Summary: sig.Summary})
	}
	if err != nil {
		return err
	}
	if err := c.player.StartPlaylistBasedOnMood(ctx, newMood); err != nil {
		return err
	}
	return nil
}

func (c *Coordinator) sleep(ctx context.Context) {
	reason := "Quiet hours"
	if c.quiet.End != nil {
		reason = fmt.Sprintf("Quiet hours until %s", *c.quiet.End)
	}
	c.moodState.Set(SleepingMood, reason)
	c.playlistState.Clear()
	if err := c.player.Pause(ctx); err != nil {
		logx.Warn().Err(err).Msg("Pausing for quiet hours failed")
	}
}

func (c *Coordinator) record(ctx context.Context, cycle *db.Cycle) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Insert(ctx, cycle); err != nil {
		logx.Warn().Err(err).Str("cycle_id", cycle.ID.String()).Msg("Recording mood cycle failed")
	}
}

// RefreshDisplay re-renders the current state. Safe to call without the
// mood lock.
func (c *Coordinator) RefreshDisplay(ctx context.Context) {
	c.refreshDisplay(ctx)
}

func (c *Coordinator) refreshDisplay(ctx context.Context) {
	if c.display == nil {
		return
	}

	logx.Debug().Msg("Acquiring display lock...")
	c.displayMu.Lock()
	defer c.displayMu.Unlock()

	c.render(c.frame(ctx))
}

// ToggleInfo prints the reasoning behind the mood and the playlist and
// switches the display to or from the info screen.
func (c *Coordinator) ToggleInfo(ctx context.Context) {
	_, moodReason := c.moodState.Snapshot()
	snap := c.playlistState.Snapshot()
	c.printf("Mood Reasoning: %s\nPlaylist Reasoning: %s\n", moodReason, snap.SearchQueryReason)

	if c.display == nil {
		return
	}
	c.displayMu.Lock()
	defer c.displayMu.Unlock()
	c.display.ToggleInfoScreen()
	c.render(c.frame(ctx))
}

// frame builds the display frame. The track comes from the backend when it
// answers so external skips show up.
func (c *Coordinator) frame(ctx context.Context) display.Frame {
	moodText, moodReason := c.moodState.Snapshot()
	snap := c.playlistState.Snapshot()

	f := display.Frame{
		Mood:           moodText,
		Playlist:       display.NoPlaylist,
		Track:          snap.TrackName,
		Artist:         snap.ArtistName,
		MoodReason:     moodReason,
		PlaylistReason: snap.SearchQueryReason,
	}
	if snap.Playlist != nil {
		f.Playlist = snap.Playlist.Name
	}

	pb, err := c.player.NowPlaying(ctx)
	switch {
	case err != nil:
		logx.Debug().Err(err).Msg("Reading now playing for display failed")
	case pb != nil:
		f.Track, f.Artist = pb.Track, pb.Artist
	}
	return f
}

func (c *Coordinator) render(f display.Frame) {
	drawn, err := c.display.Render(f)
	if err != nil {
		logx.Warn().Err(err).Msg("Rendering display failed")
		return
	}
	if drawn {
		logx.Debug().Str("mood", f.Mood).Msg("Display redrawn")
	}
}

// PlayPause toggles playback.
func (c *Coordinator) PlayPause(ctx context.Context) error {
	return c.playback(ctx, "play/pause", c.player.PlayPause)
}

// Play resumes playback.
func (c *Coordinator) Play(ctx context.Context) error {
	return c.playback(ctx, "play", c.player.Play)
}

// Pause pauses playback.
func (c *Coordinator) Pause(ctx context.Context) error {
	return c.playback(ctx, "pause", c.player.Pause)
}

// Next skips to the next track and refreshes the display.
func (c *Coordinator) Next(ctx context.Context) error {
	return c.playback(ctx, "next", c.player.NextTrack)
}

// Previous skips to the previous track and refreshes the display.
func (c *Coordinator) Previous(ctx context.Context) error {
	return c.playback(ctx, "previous", c.player.PreviousTrack)
}

func (c *Coordinator) playback(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logx.Error().Err(err).Str("action", name).Msg("Playback command failed")
		return err
	}
	c.refreshDisplay(ctx)
	return nil
}

// Shutdown pauses playback and forces a final display refresh.
func (c *Coordinator) Shutdown(ctx context.Context) {
	logx.Info().Msg("Exiting...")
	if err := c.player.Pause(ctx); err != nil {
		logx.Warn().Err(err).Msg("Pausing on exit failed")
	}
	c.refreshDisplay(ctx)
}

// Wait blocks until every dispatched action has returned.
func (c *Coordinator) Wait() {
	c.actions.Wait()
}

// Status is a read-only view of the coordinator state.
type Status struct {
	Mood              string `json:"mood"`
	MoodReason        string `json:"mood_reason"`
	SearchQuery       string `json:"search_query"`
	SearchQueryReason string `json:"search_query_reason"`
	Playlist          string `json:"playlist,omitempty"`
	PlaylistURI       string `json:"playlist_uri,omitempty"`
	Track             string `json:"track,omitempty"`
	Artist            string `json:"artist,omitempty"`
	Device            string `json:"device,omitempty"`
	Determining       bool   `json:"determining"`
	QuietHours        bool   `json:"quiet_hours"`
}

// Status returns the current state without taking the mood lock.
func (c *Coordinator) Status() Status {
	moodText, moodReason := c.moodState.Snapshot()
	snap := c.playlistState.Snapshot()

	s := Status{
		Mood:              moodText,
		MoodReason:        moodReason,
		SearchQuery:       snap.SearchQuery,
		SearchQueryReason: snap.SearchQueryReason,
		Track:             snap.TrackName,
		Artist:            snap.ArtistName,
		Determining:       c.engine.Determining(),
		QuietHours:        c.QuietHoursActive(),
	}
	if snap.Playlist != nil {
		s.Playlist = snap.Playlist.Name
		s.PlaylistURI = snap.Playlist.URI
	}
	if d := c.player.Device(); d != nil {
		s.Device = d.Name
	}
	return s
}

func (c *Coordinator) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

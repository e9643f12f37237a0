// Package display renders the companion's status. Renderers skip redraws
// when nothing changed since the previous frame.
package display

// NoPlaylist is shown when no playlist is selected.
const NoPlaylist = "N/A"

// Frame is everything a renderer draws.
type Frame struct {
	Mood           string
	Playlist       string
	Track          string
	Artist         string
	MoodReason     string
	PlaylistReason string
}

// Renderer draws frames. Implementations are not safe for concurrent use;
// callers serialize Render and ToggleInfoScreen.
type Renderer interface {
	// Render draws f and reports whether anything was physically redrawn.
	Render(f Frame) (bool, error)
	// ToggleInfoScreen switches between the main and the reasoning screen.
	// It takes effect on the next Render.
	ToggleInfoScreen()
}

// Snapshot is the last rendered frame plus the screen mode.
type Snapshot struct {
	Frame
	Info bool
}

// changeDetector remembers the last drawn snapshot.
type changeDetector struct {
	last  Snapshot
	drawn bool
}

// changed reports whether s differs from the last drawn snapshot.
func (d *changeDetector) changed(s Snapshot) bool {
	return !d.drawn || d.last != s
}

func (d *changeDetector) remember(s Snapshot) {
	d.last = s
	d.drawn = true
}

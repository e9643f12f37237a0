package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	title      = "BeBa"
	frameWidth = 44
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	moodStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(frameWidth)
)

// Terminal draws frames as a bordered box on a writer, usually stdout.
type Terminal struct {
	out      io.Writer
	info     bool
	detector changeDetector
}

// NewTerminal creates a terminal renderer writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Snapshot returns the last drawn frame and mode.
func (t *Terminal) Snapshot() Snapshot {
	return t.detector.last
}

func (t *Terminal) ToggleInfoScreen() {
	t.info = !t.info
}

func (t *Terminal) Render(f Frame) (bool, error) {
	snap := Snapshot{Frame: f, Info: t.info}
	if !t.detector.changed(snap) {
		return false, nil
	}

	var body string
	if t.info {
		body = renderInfo(f)
	} else {
		body = renderMain(f)
	}

	if _, err := fmt.Fprintln(t.out, boxStyle.Render(body)); err != nil {
		return false, fmt.Errorf("writing frame: %w", err)
	}
	t.detector.remember(snap)
	return true, nil
}

func renderMain(f Frame) string {
	lines := []string{
		titleStyle.Render(title),
		moodStyle.Render(orDash(f.Mood)),
		f.Playlist,
	}
	if f.Track != "" {
		lines = append(lines, labelStyle.Render("♪ ")+f.Track)
		if f.Artist != "" {
			lines = append(lines, labelStyle.Render("by ")+f.Artist)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderInfo(f Frame) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title+" / why"),
		moodStyle.Render(orDash(f.Mood))+labelStyle.Render(" because"),
		orDash(f.MoodReason),
		"",
		moodStyle.Render(f.Playlist)+labelStyle.Render(" because"),
		orDash(f.PlaylistReason),
	)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

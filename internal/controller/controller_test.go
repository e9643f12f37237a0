package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/go-mood-companion/internal/config"
	"github.com/justestif/go-mood-companion/internal/db"
	"github.com/justestif/go-mood-companion/internal/display"
	"github.com/justestif/go-mood-companion/internal/llm"
	"github.com/justestif/go-mood-companion/internal/mood"
	"github.com/justestif/go-mood-companion/internal/moodchanger"
	"github.com/justestif/go-mood-companion/internal/playlist"
)

// fakeGenerator answers mood prompts and search prompts separately and
// tracks how many calls overlap.
type fakeGenerator struct {
	moodReply  string
	queryReply string
	err        error
	delay      time.Duration
	// numbered appends a per-prompt-kind counter so every cycle answers
	// differently: "Mood1", "Query1", "Mood2", ...
	numbered bool

	calls    atomic.Int32
	moods    atomic.Int32
	queries  atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		seen := g.maxSeen.Load()
		if n <= seen || g.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(g.delay)

	if g.err != nil {
		return "", g.err
	}
	if strings.Contains(prompt, "type of music") {
		if g.numbered {
			n := g.queries.Add(1)
			return fmt.Sprintf("Query%d: reason %d", n, n), nil
		}
		return g.queryReply, nil
	}
	if g.numbered {
		n := g.moods.Add(1)
		return fmt.Sprintf("Mood%d: reason %d", n, n), nil
	}
	return g.moodReply, nil
}

type fakeProvider struct{ summary string }

func (fakeProvider) Topic() string                             { return "weather" }
func (p fakeProvider) Summary(context.Context) (string, error) { return p.summary, nil }

// fakeBackend records playback commands.
type fakeBackend struct {
	mu       sync.Mutex
	calls    []string
	playing  *playlist.Playback
	results  []playlist.Playlist
	pauseErr error
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) Devices(context.Context) ([]playlist.Device, error) { return nil, nil }

func (b *fakeBackend) SearchPlaylists(_ context.Context, query string) ([]playlist.Playlist, error) {
	b.record("Search(" + query + ")")
	return b.results, nil
}

func (b *fakeBackend) StartPlayback(_ context.Context, uri, deviceID string) error {
	b.record("StartPlayback(" + uri + "," + deviceID + ")")
	b.mu.Lock()
	b.playing = &playlist.Playback{IsPlaying: true, Track: "Track One", Artist: "Artist One"}
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) Resume(_ context.Context, deviceID string) error {
	b.record("Resume(" + deviceID + ")")
	return nil
}

func (b *fakeBackend) Pause(_ context.Context, deviceID string) error {
	b.record("Pause(" + deviceID + ")")
	return b.pauseErr
}

func (b *fakeBackend) CurrentlyPlaying(context.Context) (*playlist.Playback, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.playing == nil {
		return nil, nil
	}
	pb := *b.playing
	return &pb, nil
}

func (b *fakeBackend) Next(_ context.Context, deviceID string) error {
	b.record("Next(" + deviceID + ")")
	return nil
}

func (b *fakeBackend) Previous(_ context.Context, deviceID string) error {
	b.record("Previous(" + deviceID + ")")
	return nil
}

type fakeRenderer struct {
	mu      sync.Mutex
	frames  []display.Frame
	toggles int
	delay   time.Duration
	// spans records the start and end of every Render call.
	spans [][2]time.Time
}

func (r *fakeRenderer) Render(f display.Frame) (bool, error) {
	start := time.Now()
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	r.spans = append(r.spans, [2]time.Time{start, time.Now()})
	return true, nil
}

func (r *fakeRenderer) ToggleInfoScreen() {
	r.mu.Lock()
	r.toggles++
	r.mu.Unlock()
}

func (r *fakeRenderer) last() display.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return display.Frame{}
	}
	return r.frames[len(r.frames)-1]
}

type fakeRecorder struct {
	mu     sync.Mutex
	cycles []db.Cycle
}

func (r *fakeRecorder) Insert(_ context.Context, c *db.Cycle) error {
	r.mu.Lock()
	r.cycles = append(r.cycles, *c)
	r.mu.Unlock()
	return nil
}

type harness struct {
	gen      *fakeGenerator
	backend  *fakeBackend
	renderer *fakeRenderer
	recorder *fakeRecorder
	out      *syncBuffer
	moods    *mood.State
	lists    *playlist.State
	c        *Coordinator
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func newHarness(t *testing.T, quiet config.QuietHours, now time.Time) *harness {
	t.Helper()
	h := &harness{
		gen: &fakeGenerator{
			moodReply:  "Content: feeling sunny and refreshed",
			queryReply: "Acoustic morning playlist: gentle songs for a fresh start",
		},
		backend: &fakeBackend{
			results: []playlist.Playlist{{ID: "p1", Name: "Sunny Folk", URI: "spotify:playlist:p1"}},
		},
		renderer: &fakeRenderer{},
		recorder: &fakeRecorder{},
		out:      &syncBuffer{},
		moods:    mood.NewState(),
		lists:    playlist.NewState(),
	}
	engine := mood.NewEngine(h.gen, []moodchanger.Provider{fakeProvider{summary: "sunny and cool"}}, h.moods)
	selector := playlist.NewSelector(h.gen, h.backend, h.lists,
		playlist.WithDevice(playlist.Device{ID: "dev-1", Name: "Kitchen"}))

	h.c = New(Options{
		Engine:          engine,
		Player:          selector,
		MoodState:       h.moods,
		PlaylistState:   h.lists,
		Display:         h.renderer,
		Recorder:        h.recorder,
		Quiet:           quiet,
		MoodInterval:    time.Hour,
		DisplayInterval: time.Minute,
		Out:             h.out,
		Now:             func() time.Time { return now },
	})
	return h
}

func clock(t *testing.T, s string) *config.Clock {
	t.Helper()
	c, err := config.ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q) error = %v", s, err)
	}
	return &c
}

var noon = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestDetermineMoodAndPlay(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)

	cycle := h.c.DetermineMoodAndPlay(context.Background(), db.TriggerTimer)

	m, reason := h.moods.Snapshot()
	if m != "Content" || reason != "feeling sunny and refreshed" {
		t.Errorf("mood state = (%q, %q)", m, reason)
	}
	snap := h.lists.Snapshot()
	if snap.SearchQuery != "Acoustic morning playlist" {
		t.Errorf("search query = %q, want Acoustic morning playlist", snap.SearchQuery)
	}
	if got := snap.PlaylistName(); got != "Sunny Folk" {
		t.Errorf("playlist = %q, want Sunny Folk", got)
	}
	if calls := h.backend.Calls(); len(calls) < 3 || calls[1] != "StartPlayback(spotify:playlist:p1,dev-1)" || calls[2] != "Resume(dev-1)" {
		t.Errorf("backend calls = %v", calls)
	}
	if !strings.Contains(h.out.String(), "MOOD: Content | PLAYLIST: Sunny Folk\n") {
		t.Errorf("output = %q", h.out.String())
	}

	f := h.renderer.last()
	if f.Mood != "Content" || f.Playlist != "Sunny Folk" || f.Track != "Track One" {
		t.Errorf("last frame = %+v", f)
	}

	if cycle.Error != nil {
		t.Errorf("cycle.Error = %q", *cycle.Error)
	}
	if cycle.PlaylistURI == nil || *cycle.PlaylistURI != "spotify:playlist:p1" {
		t.Errorf("cycle.PlaylistURI = %v", cycle.PlaylistURI)
	}
	if len(cycle.Signals) != 1 || cycle.Signals[0].Summary != "sunny and cool" {
		t.Errorf("cycle.Signals = %+v", cycle.Signals)
	}
	if len(h.recorder.cycles) != 1 || h.recorder.cycles[0].Trigger != db.TriggerTimer {
		t.Errorf("recorded cycles = %+v", h.recorder.cycles)
	}
}

func TestDetermineMoodAndPlay_QuietHours(t *testing.T) {
	quiet := config.QuietHours{Enabled: true, Start: clock(t, "2200"), End: clock(t, "0600")}
	lateNight := time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC)
	h := newHarness(t, quiet, lateNight)
	h.backend.playing = &playlist.Playback{IsPlaying: true, Track: "Lullaby"}

	cycle := h.c.DetermineMoodAndPlay(context.Background(), db.TriggerTimer)

	if n := h.gen.calls.Load(); n != 0 {
		t.Errorf("generator called %d times during quiet hours", n)
	}
	m, reason := h.moods.Snapshot()
	if m != SleepingMood || reason != "Quiet hours until 06:00" {
		t.Errorf("mood state = (%q, %q)", m, reason)
	}
	if h.lists.Snapshot().Playlist != nil {
		t.Error("playlist not cleared")
	}
	if calls := h.backend.Calls(); len(calls) != 1 || calls[0] != "Pause(dev-1)" {
		t.Errorf("backend calls = %v, want [Pause(dev-1)]", calls)
	}
	if !strings.Contains(h.out.String(), "MOOD: SLEEPING | PLAYLIST: None\n") {
		t.Errorf("output = %q", h.out.String())
	}
	if f := h.renderer.last(); f.Playlist != display.NoPlaylist {
		t.Errorf("frame playlist = %q, want %q", f.Playlist, display.NoPlaylist)
	}
	if !cycle.Quiet {
		t.Error("cycle.Quiet = false")
	}
}

func TestDetermineMoodAndPlay_FailureKeepsState(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)
	h.gen.err = llm.ErrBackendUnavailable

	cycle := h.c.DetermineMoodAndPlay(context.Background(), db.TriggerKeypress)

	if m, _ := h.moods.Snapshot(); m != "happy" {
		t.Errorf("mood = %q, want happy", m)
	}
	if cycle.Error == nil || !strings.Contains(*cycle.Error, mood.ErrDeterminationFailed.Error()) {
		t.Errorf("cycle.Error = %v", cycle.Error)
	}
	if !strings.Contains(h.out.String(), "MOOD: happy | PLAYLIST: None\n") {
		t.Errorf("output = %q", h.out.String())
	}
}

func TestDetermineMoodAndPlay_Serialized(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)
	h.gen.delay = 20 * time.Millisecond
	h.gen.numbered = true

	ctx := context.Background()
	for range 3 {
		if err := h.c.Submit(ctx, ActionChangeMood, db.TriggerKeypress); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	h.c.Wait()

	if n := h.gen.maxSeen.Load(); n != 1 {
		t.Errorf("max concurrent generator calls = %d, want 1", n)
	}
	if n := len(h.recorder.cycles); n != 3 {
		t.Fatalf("recorded %d cycles, want 3", n)
	}

	// Each cycle's mood and query share a number; a mismatch means two
	// cycles interleaved their writes.
	for i, c := range h.recorder.cycles {
		want := strings.TrimPrefix(c.Mood, "Mood")
		if c.SearchQuery != "Query"+want || c.MoodReason != "reason "+want {
			t.Errorf("cycle %d mixed state: mood %q (%q), query %q", i, c.Mood, c.MoodReason, c.SearchQuery)
		}
	}

	m, reason := h.moods.Snapshot()
	snap := h.lists.Snapshot()
	last := h.recorder.cycles[len(h.recorder.cycles)-1]
	if m != "Mood3" || reason != "reason 3" || snap.SearchQuery != "Query3" {
		t.Errorf("final state = (%q, %q, %q), want cycle 3", m, reason, snap.SearchQuery)
	}
	if last.Mood != m || last.SearchQuery != snap.SearchQuery {
		t.Errorf("last recorded cycle (%q, %q) does not match final state (%q, %q)", last.Mood, last.SearchQuery, m, snap.SearchQuery)
	}
}

func TestDisplayLoop_WaitsAfterRefresh(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)
	h.c.displayInterval = 20 * time.Millisecond
	h.renderer.delay = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.c.displayLoop(ctx)
		close(done)
	}()
	time.Sleep(250 * time.Millisecond)
	cancel()
	<-done

	h.renderer.mu.Lock()
	spans := append([][2]time.Time(nil), h.renderer.spans...)
	h.renderer.mu.Unlock()

	if len(spans) < 2 {
		t.Fatalf("got %d refreshes, want at least 2", len(spans))
	}
	for i := 1; i < len(spans); i++ {
		// The whole interval must pass between one refresh ending and the next starting.
		if gap := spans[i][0].Sub(spans[i-1][1]); gap < 15*time.Millisecond {
			t.Errorf("refresh %d started %v after the previous one ended, want >= interval", i, gap)
		}
	}
}

func TestPlaybackActions(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionToggle, "Pause(dev-1)"},
		{ActionPause, "Pause(dev-1)"},
		{ActionNext, "Next(dev-1)"},
		{ActionPrevious, "Previous(dev-1)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			h := newHarness(t, config.QuietHours{}, noon)
			h.backend.playing = &playlist.Playback{IsPlaying: true, Track: "Song", Artist: "Band"}

			if err := h.c.Submit(context.Background(), tt.action, db.TriggerRemote); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			h.c.Wait()

			calls := h.backend.Calls()
			if len(calls) != 1 || calls[0] != tt.want {
				t.Errorf("backend calls = %v, want [%s]", calls, tt.want)
			}
			if f := h.renderer.last(); f.Track != "Song" {
				t.Errorf("display not refreshed, last frame = %+v", f)
			}
		})
	}
}

func TestSubmit_UnknownAction(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)
	err := h.c.Submit(context.Background(), Action("dance"), db.TriggerRemote)
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Submit() error = %v, want ErrUnknownAction", err)
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction("next"); err != nil || a != ActionNext {
		t.Errorf("ParseAction(next) = %q, %v", a, err)
	}
	if _, err := ParseAction("rewind"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("ParseAction(rewind) error = %v", err)
	}
}

func TestHandleKey(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)
	ctx := context.Background()

	if quit := h.c.HandleKey(ctx, 'z'); quit {
		t.Error("unbound key requested quit")
	}
	if quit := h.c.HandleKey(ctx, 'q'); !quit {
		t.Error("quit key did not request quit")
	}

	if quit := h.c.HandleKey(ctx, 'i'); quit {
		t.Error("info key requested quit")
	}
	h.c.Wait()
	if h.renderer.toggles != 1 {
		t.Errorf("toggles = %d, want 1", h.renderer.toggles)
	}
	if !strings.Contains(h.out.String(), "Mood Reasoning: ") {
		t.Errorf("output = %q", h.out.String())
	}
}

func TestActionForKey(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)
	tests := map[rune]Action{
		'm': ActionChangeMood,
		'p': ActionToggle,
		'n': ActionNext,
		'b': ActionPrevious,
		'i': ActionInfo,
	}
	for key, want := range tests {
		if got, ok := h.c.ActionForKey(key); !ok || got != want {
			t.Errorf("ActionForKey(%q) = %q, %v, want %q", key, got, ok, want)
		}
	}
	if _, ok := h.c.ActionForKey('q'); ok {
		t.Error("quit key mapped to an action")
	}
}

func TestNextMoodWait(t *testing.T) {
	quiet := config.QuietHours{Enabled: true, Start: clock(t, "2200"), End: clock(t, "0600")}

	day := newHarness(t, quiet, noon)
	if got := day.c.NextMoodWait(); got != time.Hour {
		t.Errorf("NextMoodWait() at noon = %v, want 1h", got)
	}

	night := newHarness(t, quiet, time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC))
	if got := night.c.NextMoodWait(); got != time.Minute {
		t.Errorf("NextMoodWait() at 03:00 = %v, want 1m", got)
	}
}

func TestStatus(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)
	h.c.DetermineMoodAndPlay(context.Background(), db.TriggerTimer)

	s := h.c.Status()
	if s.Mood != "Content" || s.Playlist != "Sunny Folk" || s.Device != "Kitchen" {
		t.Errorf("Status() = %+v", s)
	}
	if s.Determining || s.QuietHours {
		t.Errorf("Status() flags = %+v", s)
	}
}

func TestPrintBanner(t *testing.T) {
	h := newHarness(t, config.QuietHours{}, noon)
	var buf bytes.Buffer
	h.c.PrintBanner(&buf)
	for _, want := range []string{"m  change mood", "b  previous track", "q  quit"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("banner missing %q:\n%s", want, buf.String())
		}
	}
}

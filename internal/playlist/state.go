package playlist

import "sync"

// Snapshot is a copy of the playlist state.
type Snapshot struct {
	SearchQuery       string
	SearchQueryReason string
	// Playlist is nil when no playlist is selected.
	Playlist   *Playlist
	TrackName  string
	ArtistName string
}

// PlaylistName returns the selected playlist's name or "".
func (s Snapshot) PlaylistName() string {
	if s.Playlist == nil {
		return ""
	}
	return s.Playlist.Name
}

// State holds the selector's last query and selection. Writers hold the
// coordinator's mood lock.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Snapshot returns a copy safe to read without further locking.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	if snap.Playlist != nil {
		p := *snap.Playlist
		snap.Playlist = &p
	}
	return snap
}

// Clear drops the query, the playlist and the track.
func (s *State) Clear() {
	s.mu.Lock()
	s.snap = Snapshot{}
	s.mu.Unlock()
}

func (s *State) setQuery(query, reason string) {
	s.mu.Lock()
	s.snap.SearchQuery, s.snap.SearchQueryReason = query, reason
	s.mu.Unlock()
}

func (s *State) setPlaylist(p *Playlist) {
	s.mu.Lock()
	s.snap.Playlist = p
	s.mu.Unlock()
}

func (s *State) setTrack(track, artist string) {
	s.mu.Lock()
	s.snap.TrackName, s.snap.ArtistName = track, artist
	s.mu.Unlock()
}

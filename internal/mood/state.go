package mood

import "sync"

// Initial mood before the first cycle completes.
const (
	InitialMood   = "happy"
	InitialReason = ""
)

// State is the current mood shared between the engine, the coordinator and
// the display. Writers hold the coordinator's mood lock; the RWMutex only
// guards individual reads against a concurrent write.
type State struct {
	mu     sync.RWMutex
	mood   string
	reason string
}

// NewState returns the initial ("happy", "") state.
func NewState() *State {
	return &State{mood: InitialMood, reason: InitialReason}
}

// Snapshot returns a consistent copy of mood and reason.
func (s *State) Snapshot() (mood, reason string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mood, s.reason
}

// Set replaces mood and reason together.
func (s *State) Set(mood, reason string) {
	s.mu.Lock()
	s.mood, s.reason = mood, reason
	s.mu.Unlock()
}

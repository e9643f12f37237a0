package db

import (
	"time"

	"github.com/google/uuid"
)

// Trigger values for Cycle.Trigger.
const (
	TriggerTimer    = "timer"
	TriggerKeypress = "keypress"
	TriggerRemote   = "remote"
)

// Signal is one mood changer summary that fed a cycle.
type Signal struct {
	Topic   string `json:"topic"`
	Summary string `json:"summary"`
}

// Cycle is one completed mood cycle.
type Cycle struct {
	ID                uuid.UUID
	Trigger           string
	StartedAt         time.Time
	FinishedAt        time.Time
	Quiet             bool
	Mood              string
	MoodReason        string
	SearchQuery       string
	SearchQueryReason string
	PlaylistName      *string // nullable
	PlaylistURI       *string // nullable
	Error             *string // nullable
	Signals           []Signal
}

// Duration is how long the cycle took.
func (c Cycle) Duration() time.Duration {
	return c.FinishedAt.Sub(c.StartedAt)
}

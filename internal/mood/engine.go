// Package mood derives the companion's mood from the enabled mood changers
// by asking the text-generation backend for a "mood: reason" answer.
package mood

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/justestif/go-mood-companion/internal/llm"
	"github.com/justestif/go-mood-companion/internal/logx"
	"github.com/justestif/go-mood-companion/internal/moodchanger"
)

//go:embed prompt.tmpl
var promptTemplate string

// ErrDeterminationFailed is returned when every attempt failed. The state
// keeps its previous values.
var ErrDeterminationFailed = errors.New("mood determination failed")

// Signal is one provider's contribution to a cycle.
type Signal struct {
	Topic   string
	Summary string
}

// Engine runs mood cycles. It is not safe for concurrent DetermineMood
// calls; the coordinator serializes them.
type Engine struct {
	gen         llm.Generator
	providers   []moodchanger.Provider
	state       *State
	maxAttempts int
	determining atomic.Bool
	lastSignals atomic.Pointer[[]Signal]
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxAttempts overrides the number of full cycles tried per call.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) { e.maxAttempts = n }
}

// NewEngine creates an engine writing into state.
func NewEngine(gen llm.Generator, providers []moodchanger.Provider, state *State, opts ...Option) *Engine {
	e := &Engine{
		gen:         gen,
		providers:   providers,
		state:       state,
		maxAttempts: llm.DefaultAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the state the engine writes to.
func (e *Engine) State() *State { return e.state }

// MaxAttempts reports the configured attempt bound.
func (e *Engine) MaxAttempts() int { return e.maxAttempts }

// Determining reports whether a cycle is in progress.
func (e *Engine) Determining() bool { return e.determining.Load() }

// LastSignals returns the signals of the most recent attempt.
func (e *Engine) LastSignals() []Signal {
	if p := e.lastSignals.Load(); p != nil {
		return *p
	}
	return nil
}

// MoodChangers collects a summary from every provider, in provider order.
// Failing providers are logged and left out.
func (e *Engine) MoodChangers(ctx context.Context) []Signal {
	signals := make([]Signal, 0, len(e.providers))
	for _, p := range e.providers {
		summary, err := p.Summary(ctx)
		if err != nil {
			logx.Warn().Err(err).Str("topic", p.Topic()).Msg("Skipping mood changer")
			continue
		}
		signals = append(signals, Signal{Topic: p.Topic(), Summary: sanitize(summary)})
	}
	return signals
}

// FormatSignals renders one summary per line.
func FormatSignals(signals []Signal) string {
	var b strings.Builder
	for _, s := range signals {
		b.WriteString(s.Summary)
		b.WriteByte('\n')
	}
	return b.String()
}

// DetermineMood runs a full cycle and updates the state. A malformed answer
// or a backend failure restarts the whole cycle, signals included.
func (e *Engine) DetermineMood(ctx context.Context) (string, error) {
	e.determining.Store(true)
	defer e.determining.Store(false)

	var mood, reason string
	err := llm.Retry(ctx, e.maxAttempts,
		func(int) error {
			var err error
			mood, reason, err = e.attempt(ctx)
			return err
		},
		func(attempt int, err error) {
			logx.Warn().Err(err).Int("attempt", attempt).Msg("Determining mood failed, retrying...")
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDeterminationFailed, err)
	}

	e.state.Set(mood, reason)
	logx.Info().Str("mood", mood).Msg("New mood")
	return mood, nil
}

func (e *Engine) attempt(ctx context.Context) (mood, reason string, err error) {
	signals := e.MoodChangers(ctx)
	e.lastSignals.Store(&signals)
	logx.Debug().Interface("signals", signals).Msg("Mood changers")

	text := FormatSignals(signals)
	prompt, err := llm.RenderPrompt(ctx, promptTemplate, map[string]any{"MoodChangerText": text})
	if err != nil {
		return "", "", fmt.Errorf("rendering mood prompt: %w", err)
	}

	resp, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", "", err
	}
	logx.Debug().Str("response", resp).Msg("LLM response")

	return llm.SplitResponse(resp)
}

// sanitize keeps a summary on one line and free of the response delimiter.
func sanitize(summary string) string {
	summary = strings.ReplaceAll(summary, llm.Delimiter, "-")
	return strings.Join(strings.Fields(summary), " ")
}

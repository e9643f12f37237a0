package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/justestif/go-mood-companion/internal/db"
	"github.com/justestif/go-mood-companion/internal/logx"
)

// ErrUnknownAction is returned by Submit for an action it does not know.
var ErrUnknownAction = errors.New("unknown action")

// Action names a command that can be dispatched from a keypress or the
// status server.
type Action string

const (
	ActionChangeMood Action = "mood"
	ActionToggle     Action = "toggle"
	ActionPlay       Action = "play"
	ActionPause      Action = "pause"
	ActionNext       Action = "next"
	ActionPrevious   Action = "previous"
	ActionInfo       Action = "info"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionChangeMood, ActionToggle, ActionPlay, ActionPause,
		ActionNext, ActionPrevious, ActionInfo:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Submit runs the action on its own goroutine and returns immediately.
// The action runs on a context detached from ctx's cancellation so an
// in-flight cycle is not cut short by shutdown. Use Wait to join.
func (c *Coordinator) Submit(ctx context.Context, a Action, trigger string) error {
	fn, err := c.handler(a, trigger)
	if err != nil {
		return err
	}

	c.actions.Add(1)
	go func() {
		defer c.actions.Done()
		fn(context.WithoutCancel(ctx))
	}()
	return nil
}

func (c *Coordinator) handler(a Action, trigger string) (func(context.Context), error) {
	ignore := func(fn func(context.Context) error) func(context.Context) {
		// Errors are logged by the playback helper.
		return func(ctx context.Context) { _ = fn(ctx) }
	}

	switch a {
	case ActionChangeMood:
		return func(ctx context.Context) { c.DetermineMoodAndPlay(ctx, trigger) }, nil
	case ActionToggle:
		return ignore(c.PlayPause), nil
	case ActionPlay:
		return ignore(c.Play), nil
	case ActionPause:
		return ignore(c.Pause), nil
	case ActionNext:
		return ignore(c.Next), nil
	case ActionPrevious:
		return ignore(c.Previous), nil
	case ActionInfo:
		return c.ToggleInfo, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, a)
}

// ActionForKey maps a key to its action. ok is false for unbound keys and
// for the quit key.
func (c *Coordinator) ActionForKey(r rune) (Action, bool) {
	switch r {
	case c.keys.ChangeMood:
		return ActionChangeMood, true
	case c.keys.PlayPause:
		return ActionToggle, true
	case c.keys.Next:
		return ActionNext, true
	case c.keys.Previous:
		return ActionPrevious, true
	case c.keys.Info:
		return ActionInfo, true
	}
	return "", false
}

// HandleKey dispatches one keypress and reports whether it asked to quit.
// Unbound keys are ignored.
func (c *Coordinator) HandleKey(ctx context.Context, r rune) (quit bool) {
	if r == c.keys.Quit {
		return true
	}
	a, ok := c.ActionForKey(r)
	if !ok {
		logx.Debug().Str("key", string(r)).Msg("Ignoring unbound key")
		return false
	}
	logx.Debug().Str("key", string(r)).Str("action", string(a)).Msg("Key pressed")
	if err := c.Submit(ctx, a, db.TriggerKeypress); err != nil {
		logx.Warn().Err(err).Msg("Dispatching key failed")
	}
	return false
}

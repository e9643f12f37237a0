package controller

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/justestif/go-mood-companion/internal/db"
	"github.com/justestif/go-mood-companion/internal/logx"
)

// KeySource delivers keypresses. Implemented by Keyboard.
type KeySource interface {
	Keys() (<-chan keyboard.KeyEvent, error)
	Close() error
}

// NextMoodWait returns how long the mood timer waits before the next cycle.
func (c *Coordinator) NextMoodWait() time.Duration {
	if c.QuietHoursActive() {
		return quietRecheck
	}
	return c.moodInterval
}

// Run starts the mood and display timers and reads keypresses until the
// quit key, Ctrl-C, a closed key channel or ctx cancellation. On exit it
// waits for dispatched actions, then pauses playback and refreshes the display.
func (c *Coordinator) Run(ctx context.Context, keys KeySource) error {
	events, err := keys.Keys()
	if err != nil {
		return fmt.Errorf("opening keyboard: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{}, 2)
	go func() {
		c.moodLoop(loopCtx)
		done <- struct{}{}
	}()
	go func() {
		c.displayLoop(loopCtx)
		done <- struct{}{}
	}()

	c.readKeys(ctx, events)

	cancel()
	<-done
	<-done

	// In-flight actions finish first so nothing resumes playback after the pause.
	c.Wait()
	c.Shutdown(context.WithoutCancel(ctx))
	if err := keys.Close(); err != nil {
		logx.Warn().Err(err).Msg("Closing keyboard failed")
	}
	return nil
}

func (c *Coordinator) readKeys(ctx context.Context, events <-chan keyboard.KeyEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil {
				logx.Warn().Err(ev.Err).Msg("Reading key failed")
				continue
			}
			if ev.Key == keyboard.KeyCtrlC {
				return
			}
			if ev.Rune == 0 {
				continue
			}
			if c.HandleKey(ctx, ev.Rune) {
				return
			}
		}
	}
}

// moodLoop runs a cycle immediately, then again after each wait.
func (c *Coordinator) moodLoop(ctx context.Context) {
	for {
		c.DetermineMoodAndPlay(context.WithoutCancel(ctx), db.TriggerTimer)

		wait := c.NextMoodWait()
		logx.Debug().Dur("wait", wait).Msg("Next mood cycle scheduled")
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// displayLoop refreshes after each wait; the next wait starts once the
// refresh has returned.
func (c *Coordinator) displayLoop(ctx context.Context) {
	if c.display == nil {
		return
	}
	for {
		timer := time.NewTimer(c.displayInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		c.RefreshDisplay(ctx)
	}
}

// PrintBanner writes the startup banner listing the key bindings.
func (c *Coordinator) PrintBanner(w io.Writer) {
	fmt.Fprintln(w, "Starting mood companion...")
	fmt.Fprintf(w, "  %c  change mood\n", c.keys.ChangeMood)
	fmt.Fprintf(w, "  %c  play / pause\n", c.keys.PlayPause)
	fmt.Fprintf(w, "  %c  next track\n", c.keys.Next)
	fmt.Fprintf(w, "  %c  previous track\n", c.keys.Previous)
	fmt.Fprintf(w, "  %c  show reasoning\n", c.keys.Info)
	fmt.Fprintf(w, "  %c  quit\n", c.keys.Quit)
}

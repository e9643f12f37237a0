package config

import (
	"fmt"
	"unicode/utf8"
)

// Bindings maps each keypress action to a single character.
type Bindings struct {
	ChangeMood rune
	PlayPause  rune
	Next       rune
	Previous   rune
	Info       rune
	Quit       rune
}

// DefaultBindings returns the default key bindings.
func DefaultBindings() Bindings {
	return Bindings{
		ChangeMood: 'm',
		PlayPause:  'p',
		Next:       'n',
		Previous:   'b',
		Info:       'i',
		Quit:       'q',
	}
}

// ParseBindings converts raw key settings. A value that is not exactly one
// character keeps the default binding and is reported in the returned warnings.
func ParseBindings(raw KeyConfig) (Bindings, []string) {
	b := DefaultBindings()
	var warnings []string

	set := func(name, value string, dst *rune) {
		if value == "" {
			return
		}
		r, size := utf8.DecodeRuneInString(value)
		if r == utf8.RuneError || size != len(value) {
			warnings = append(warnings, fmt.Sprintf("%s must be a single character, got %q; keeping %q", name, value, *dst))
			return
		}
		*dst = r
	}

	set("CHANGE_MOOD_KEY", raw.ChangeMood, &b.ChangeMood)
	set("PLAY_PAUSE_KEY", raw.PlayPause, &b.PlayPause)
	set("NEXT_KEY", raw.Next, &b.Next)
	set("PREV_KEY", raw.Previous, &b.Previous)
	set("INFO_KEY", raw.Info, &b.Info)
	set("QUIT_KEY", raw.Quit, &b.Quit)

	return b, warnings
}

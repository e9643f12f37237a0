package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrQuietHoursParse is returned when a quiet-hours bound is not a valid HHMM time.
var ErrQuietHoursParse = errors.New("invalid quiet hours time")

// Clock is a time of day, stored as the offset from midnight.
type Clock time.Duration

// ParseClock parses "HHMM" (or "HH:MM") into a Clock.
func ParseClock(s string) (Clock, error) {
	v := strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	if len(v) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrQuietHoursParse, s)
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrQuietHoursParse, s)
		}
	}
	hh := int(v[0]-'0')*10 + int(v[1]-'0')
	mm := int(v[2]-'0')*10 + int(v[3]-'0')
	if hh > 23 || mm > 59 {
		return 0, fmt.Errorf("%w: %q", ErrQuietHoursParse, s)
	}
	return Clock(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute), nil
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	return Clock(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond()))
}

func (c Clock) String() string {
	d := time.Duration(c)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// QuietHours is the parsed quiet-hours window.
type QuietHours struct {
	Enabled bool
	Start   *Clock
	End     *Clock
}

// ParseQuietHours converts the raw settings. Any parse failure disables the
// feature and is returned so the caller can log it; it is never fatal.
func ParseQuietHours(raw QuietConfig) (QuietHours, error) {
	if !raw.Enabled {
		return QuietHours{}, nil
	}
	q := QuietHours{Enabled: true}
	if raw.Start != "" {
		start, err := ParseClock(raw.Start)
		if err != nil {
			return QuietHours{}, fmt.Errorf("quiet hours start: %w", err)
		}
		q.Start = &start
	}
	if raw.End != "" {
		end, err := ParseClock(raw.End)
		if err != nil {
			return QuietHours{}, fmt.Errorf("quiet hours end: %w", err)
		}
		q.End = &end
	}
	return q, nil
}

// Active reports whether now falls inside quiet hours.
//
// The window is inside when now < end OR now > start, which is correct for
// ranges that wrap past midnight (start=23:00, end=07:00). For a same-day
// range (start < end) it reports quiet outside the range instead.
func (q QuietHours) Active(now time.Time) bool {
	if !q.Enabled || q.Start == nil || q.End == nil {
		return false
	}
	c := ClockOf(now)
	return c < *q.End || c > *q.Start
}

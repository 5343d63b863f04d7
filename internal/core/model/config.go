package model

import "time"

// Mode identifies which countdown the timer is running.
type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeFocus, ModeShortBreak, ModeLongBreak}

// Valid reports whether mode is one of the known modes.
func (mode Mode) Valid() bool {
	switch mode {
	case ModeFocus, ModeShortBreak, ModeLongBreak:
		return true
	}
	return false
}

// Label returns a human readable mode name.
func (mode Mode) Label() string {
	switch mode {
	case ModeFocus:
		return "Focus"
	case ModeShortBreak:
		return "Short break"
	case ModeLongBreak:
		return "Long break"
	default:
		return string(mode)
	}
}

// Durations holds the configured length of each mode in minutes.
type Durations struct {
	FocusMinutes      int
	ShortBreakMinutes int
	LongBreakMinutes  int
}

// DefaultDurations returns the classic 25/5/15 split.
func DefaultDurations() Durations {
	return Durations{
		FocusMinutes:      25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
	}
}

// Minutes returns the configured minutes for mode.
func (durations Durations) Minutes(mode Mode) int {
	switch mode {
	case ModeShortBreak:
		return durations.ShortBreakMinutes
	case ModeLongBreak:
		return durations.LongBreakMinutes
	default:
		return durations.FocusMinutes
	}
}

// With returns a copy with mode set to minutes.
func (durations Durations) With(mode Mode, minutes int) Durations {
	switch mode {
	case ModeShortBreak:
		durations.ShortBreakMinutes = minutes
	case ModeLongBreak:
		durations.LongBreakMinutes = minutes
	default:
		durations.FocusMinutes = minutes
	}
	return durations
}

// TimerConfig contains runtime settings for the timer core.
type TimerConfig struct {
	Durations    Durations
	TickInterval time.Duration
}

// MirrorConfig contains runtime settings for the mirror surface controller.
type MirrorConfig struct {
	RedrawInterval   time.Duration
	WatchdogInterval time.Duration
}

// AudioConfig contains runtime settings for the ambient audio controller.
type AudioConfig struct {
	DefaultSource    string
	DefaultVolume    float64
	WatchdogInterval time.Duration
}

// OverlayConfig describes the draggable widget geometry.
type OverlayConfig struct {
	WidgetSize int
	EdgeGap    int
}

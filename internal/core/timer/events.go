package timer

import (
	"fmt"
	"time"

	"focusdeck/internal/core/model"
)

// Phase is the externally visible lifecycle stage of the countdown.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
)

// State is a snapshot of the countdown. Only Core mutates it.
type State struct {
	Mode             model.Mode
	TotalSeconds     int
	RemainingSeconds int
	Running          bool
}

// Phase derives the lifecycle stage from the snapshot.
func (state State) Phase() Phase {
	switch {
	case state.Running:
		return PhaseRunning
	case state.RemainingSeconds <= 0 && state.TotalSeconds > 0:
		return PhaseCompleted
	case state.RemainingSeconds < state.TotalSeconds:
		return PhasePaused
	default:
		return PhaseIdle
	}
}

// Progress returns the elapsed fraction in [0, 1].
func (state State) Progress() float64 {
	if state.TotalSeconds <= 0 {
		return 0
	}
	progress := float64(state.TotalSeconds-state.RemainingSeconds) / float64(state.TotalSeconds)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// Clock formats the remaining time as mm:ss.
func (state State) Clock() string {
	return FormatClock(state.RemainingSeconds)
}

// FormatClock formats seconds as mm:ss. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// EventType defines the type of timer event.
type EventType string

const (
	EventStarted         EventType = "started"
	EventPaused          EventType = "paused"
	EventTick            EventType = "tick"
	EventCompleted       EventType = "completed"
	EventReset           EventType = "reset"
	EventModeChanged     EventType = "mode_changed"
	EventDurationChanged EventType = "duration_changed"
)

// Event represents a timer update for observers.
type Event struct {
	Type  EventType
	State State
	At    time.Time
}

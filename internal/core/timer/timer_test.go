package timer

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdeck/internal/core/model"
	"focusdeck/internal/core/sched"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type countingNotifier struct {
	count int
}

func (notifier *countingNotifier) Notify() {
	notifier.count++
}

type recordingSessions struct {
	records chan model.SessionRecord
	err     error
}

func newRecordingSessions() *recordingSessions {
	return &recordingSessions{records: make(chan model.SessionRecord, 8)}
}

func (sessions *recordingSessions) LogSession(_ context.Context, record model.SessionRecord) (string, error) {
	sessions.records <- record
	if sessions.err != nil {
		return "", sessions.err
	}
	return "session-1", nil
}

type fixture struct {
	manual   *sched.Manual
	core     *Core
	notifier *countingNotifier
	sessions *recordingSessions
	events   []Event
}

func newFixture(t *testing.T, durations model.Durations) *fixture {
	t.Helper()
	f := &fixture{
		manual:   sched.NewManual(epoch),
		notifier: &countingNotifier{},
		sessions: newRecordingSessions(),
	}
	f.core = New(f.manual, model.TimerConfig{Durations: durations, TickInterval: time.Second}, Options{
		Notifier: f.notifier,
		Sessions: f.sessions,
	})
	f.core.Observe(func(event Event) {
		f.events = append(f.events, event)
	})
	return f
}

func (f *fixture) count(eventType EventType) int {
	total := 0
	for _, event := range f.events {
		if event.Type == eventType {
			total++
		}
	}
	return total
}

func TestCore_ExactCompletion(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	require.Equal(t, 1500, f.core.Snapshot().TotalSeconds)

	f.core.Start()
	f.manual.Advance(1500 * time.Second)

	state := f.core.Snapshot()
	assert.Equal(t, 0, state.RemainingSeconds)
	assert.False(t, state.Running)
	assert.Equal(t, PhaseCompleted, state.Phase())
	assert.Equal(t, 1, f.count(EventCompleted))
	assert.Equal(t, 1, f.notifier.count)

	select {
	case record := <-f.sessions.records:
		assert.Equal(t, model.SessionRecord{DurationMinutes: 25, BreakMinutes: 5, Completed: true}, record)
	case <-time.After(time.Second):
		t.Fatal("session record not emitted")
	}

	f.manual.Advance(time.Hour)
	assert.Equal(t, 1, f.count(EventCompleted))
	assert.Empty(t, f.sessions.records)
	assert.Zero(t, f.manual.Active(), "tick callback must be canceled after completion")
}

func TestCore_PausePreservesRemaining(t *testing.T) {
	f := newFixture(t, model.DefaultDurations().With(model.ModeFocus, 10))
	require.Equal(t, 600, f.core.Snapshot().RemainingSeconds)

	f.core.Start()
	f.manual.Advance(100 * time.Second)
	f.core.Pause()
	assert.Equal(t, 500, f.core.Snapshot().RemainingSeconds)
	assert.Equal(t, PhasePaused, f.core.Snapshot().Phase())

	f.manual.Advance(500 * time.Second)
	f.core.Start()
	assert.Equal(t, 500, f.core.Snapshot().RemainingSeconds)

	f.manual.Advance(time.Second)
	assert.Equal(t, 499, f.core.Snapshot().RemainingSeconds)
}

func TestCore_DriftFreeAccumulation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 20; run++ {
		f := newFixture(t, model.DefaultDurations().With(model.ModeFocus, MaxMinutes))
		f.core.Start()
		start := f.core.Snapshot().RemainingSeconds

		var totalMs int64
		for i := 0; i < 200; i++ {
			delay := time.Duration(rng.Intn(3500)) * time.Millisecond
			totalMs += delay.Milliseconds()
			f.manual.Stall(delay)
			f.core.tick()

			decrement := start - f.core.Snapshot().RemainingSeconds
			require.Equal(t, int(totalMs/1000), decrement, "run %d firing %d", run, i)
		}
	}
}

func TestCore_JitteredCadenceMatchesWallClock(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	f.core.Start()

	for i := 0; i < 100; i++ {
		f.manual.Stall(1100 * time.Millisecond)
		f.core.tick()
	}

	assert.Equal(t, 1500-110, f.core.Snapshot().RemainingSeconds)
}

func TestCore_RemainingNeverNegative(t *testing.T) {
	f := newFixture(t, model.DefaultDurations().With(model.ModeShortBreak, 1))
	require.NoError(t, f.core.SetMode(model.ModeShortBreak))

	f.core.Start()
	f.manual.Stall(10 * time.Minute)
	f.manual.Advance(0)

	state := f.core.Snapshot()
	assert.Equal(t, 0, state.RemainingSeconds)
	assert.LessOrEqual(t, state.RemainingSeconds, state.TotalSeconds)
	assert.False(t, state.Running)
}

func TestCore_BreakCompletionLogsNothing(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	require.NoError(t, f.core.SetMode(model.ModeLongBreak))

	f.core.Start()
	f.manual.Advance(15 * time.Minute)

	assert.Equal(t, 1, f.count(EventCompleted))
	assert.Equal(t, 1, f.notifier.count, "the cue plays for every mode")
	assert.Empty(t, f.sessions.records)
}

func TestCore_ResetLogsNothing(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())

	f.core.Start()
	f.manual.Advance(1499 * time.Second)
	f.core.Reset()
	f.manual.Advance(time.Hour)

	state := f.core.Snapshot()
	assert.Equal(t, 1500, state.RemainingSeconds)
	assert.False(t, state.Running)
	assert.Equal(t, PhaseIdle, state.Phase())
	assert.Zero(t, f.count(EventCompleted))
	assert.Zero(t, f.notifier.count)
	assert.Empty(t, f.sessions.records)
}

func TestCore_StartIsNoopWhenFinished(t *testing.T) {
	f := newFixture(t, model.DefaultDurations().With(model.ModeFocus, 1))
	f.core.Start()
	f.manual.Advance(time.Minute)
	require.Equal(t, 0, f.core.Snapshot().RemainingSeconds)

	events := len(f.events)
	f.core.Start()
	f.core.Toggle()

	assert.False(t, f.core.Snapshot().Running)
	assert.Len(t, f.events, events)
	assert.Zero(t, f.manual.Active())
}

func TestCore_StartTwiceKeepsAnchor(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	f.core.Start()
	f.manual.Stall(1500 * time.Millisecond)
	f.core.Start()
	f.manual.Stall(600 * time.Millisecond)
	f.core.tick()

	assert.Equal(t, 1498, f.core.Snapshot().RemainingSeconds)
	assert.Equal(t, 1, f.count(EventStarted))
}

func TestCore_NonPositiveElapsedIsNoop(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	f.core.Start()
	events := len(f.events)

	f.manual.Stall(999 * time.Millisecond)
	f.core.tick()

	assert.Equal(t, 1500, f.core.Snapshot().RemainingSeconds)
	assert.Len(t, f.events, events)
}

func TestCore_PauseSettlesLateSeconds(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	f.core.Start()
	f.manual.Stall(4200 * time.Millisecond)
	f.core.Pause()

	assert.Equal(t, 1496, f.core.Snapshot().RemainingSeconds)
	assert.Zero(t, f.manual.Active())
}

func TestCore_ToggleAlternates(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())

	f.core.Toggle()
	assert.True(t, f.core.Snapshot().Running)
	f.core.Toggle()
	assert.False(t, f.core.Snapshot().Running)
	assert.Equal(t, 1, f.count(EventStarted))
	assert.Equal(t, 1, f.count(EventPaused))
}

func TestCore_SetModeStopsCountdown(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	f.core.Start()
	f.manual.Advance(30 * time.Second)

	require.NoError(t, f.core.SetMode(model.ModeShortBreak))

	state := f.core.Snapshot()
	assert.Equal(t, model.ModeShortBreak, state.Mode)
	assert.Equal(t, 300, state.TotalSeconds)
	assert.Equal(t, 300, state.RemainingSeconds)
	assert.False(t, state.Running)
	assert.Zero(t, f.manual.Active())

	err := f.core.SetMode(model.Mode("nap"))
	assert.True(t, errors.Is(err, ErrInvalidMode))
}

func TestCore_SetDuration(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	f.core.Start()
	f.manual.Advance(30 * time.Second)

	require.NoError(t, f.core.SetDuration(model.ModeFocus, 50))
	state := f.core.Snapshot()
	assert.Equal(t, 3000, state.TotalSeconds)
	assert.Equal(t, 3000, state.RemainingSeconds)
	assert.False(t, state.Running)

	f.core.Start()
	f.manual.Advance(10 * time.Second)
	require.NoError(t, f.core.SetDuration(model.ModeLongBreak, 20))
	state = f.core.Snapshot()
	assert.False(t, state.Running, "a duration change always stops the countdown")
	assert.Equal(t, 2990, state.RemainingSeconds)
	assert.Equal(t, 20, f.core.Durations().LongBreakMinutes)

	assert.ErrorIs(t, f.core.SetDuration(model.ModeFocus, 0), ErrInvalidDuration)
	assert.ErrorIs(t, f.core.SetDuration(model.ModeFocus, MaxMinutes+1), ErrInvalidDuration)
	assert.Equal(t, 50, f.core.Durations().FocusMinutes)
}

func TestCore_ObserverCancel(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	seen := 0
	cancel := f.core.Observe(func(Event) { seen++ })

	f.core.Start()
	cancel()
	f.core.Pause()

	assert.Equal(t, 1, seen)
}

func TestCore_SubscribeAndStop(t *testing.T) {
	f := newFixture(t, model.DefaultDurations())
	events := f.core.Subscribe(4)

	f.core.Start()
	event := <-events
	assert.Equal(t, EventStarted, event.Type)
	assert.True(t, event.State.Running)

	f.core.Stop()
	_, open := <-events
	assert.False(t, open)
	assert.Zero(t, f.manual.Active())

	late := f.core.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestCore_SessionLoggerFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, model.DefaultDurations().With(model.ModeFocus, 1))
	f.sessions.err = errors.New("offline")

	f.core.Start()
	assert.NotPanics(t, func() { f.manual.Advance(time.Minute) })

	select {
	case record := <-f.sessions.records:
		assert.Equal(t, 1, record.DurationMinutes)
	case <-time.After(time.Second):
		t.Fatal("session logger not called")
	}
}

func TestState_Helpers(t *testing.T) {
	state := State{Mode: model.ModeFocus, TotalSeconds: 1500, RemainingSeconds: 750}

	assert.InDelta(t, 0.5, state.Progress(), 1e-9)
	assert.Equal(t, "12:30", state.Clock())
	assert.Equal(t, "00:00", FormatClock(-5))
	assert.Equal(t, "90:00", FormatClock(5400))
	assert.Zero(t, State{}.Progress())
}

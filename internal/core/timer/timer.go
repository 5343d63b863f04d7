package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"focusdeck/internal/core/model"
	"focusdeck/internal/core/sched"
	"focusdeck/internal/metrics"
)

var (
	// ErrInvalidDuration indicates a duration outside 1..MaxMinutes.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidMode indicates an unknown mode.
	ErrInvalidMode = errors.New("invalid mode")
)

// MaxMinutes caps any single countdown at twelve hours.
const MaxMinutes = 720

const defaultLogTimeout = 10 * time.Second

// Notifier plays the completion cue.
type Notifier interface {
	Notify()
}

// SessionLogger receives the record of a completed focus countdown.
type SessionLogger interface {
	LogSession(ctx context.Context, record model.SessionRecord) (string, error)
}

// Options carries the collaborators of Core. Every field is optional.
type Options struct {
	Notifier   Notifier
	Sessions   SessionLogger
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	LogTimeout time.Duration
}

// Core is the single authority over the countdown. Every method except
// Snapshot and Subscribe must run on the scheduler it was created with.
type Core struct {
	scheduler  sched.Scheduler
	config     model.TimerConfig
	options    Options
	logger     zerolog.Logger
	state      State
	lastTick   time.Time
	cancelTick sched.Cancel
	observers  []*observer
	current    atomic.Pointer[State]
	stopped    bool

	subsMu sync.Mutex
	subs   []chan Event
}

type observer struct {
	fn     func(Event)
	active bool
}

// New creates a Core in Focus mode with an idle countdown.
func New(scheduler sched.Scheduler, config model.TimerConfig, options Options) *Core {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if options.LogTimeout <= 0 {
		options.LogTimeout = defaultLogTimeout
	}
	defaults := model.DefaultDurations()
	for _, mode := range model.Modes {
		if minutes := config.Durations.Minutes(mode); minutes <= 0 || minutes > MaxMinutes {
			config.Durations = config.Durations.With(mode, defaults.Minutes(mode))
		}
	}

	core := &Core{
		scheduler: scheduler,
		config:    config,
		options:   options,
		logger:    options.Logger.With().Str("component", "timer").Logger(),
	}
	core.state = core.freshState(model.ModeFocus)
	core.store()
	return core
}

// Snapshot returns the latest published state. Safe from any goroutine.
func (core *Core) Snapshot() State {
	return *core.current.Load()
}

// Durations returns the configured minutes per mode.
func (core *Core) Durations() model.Durations {
	return core.config.Durations
}

// Observe registers fn to run on the scheduler after every mutation.
func (core *Core) Observe(fn func(Event)) sched.Cancel {
	entry := &observer{fn: fn, active: true}
	core.observers = append(core.observers, entry)
	return func() {
		entry.active = false
	}
}

// Subscribe registers a channel observer for consumers off the scheduler.
// Sends never block; a full channel drops the event.
func (core *Core) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	core.subsMu.Lock()
	defer core.subsMu.Unlock()
	if core.stopped {
		close(ch)
		return ch
	}
	core.subs = append(core.subs, ch)
	return ch
}

// Start resumes or begins the countdown. It does nothing when no time is
// left or the countdown already runs.
func (core *Core) Start() {
	if core.state.RemainingSeconds <= 0 {
		core.logger.Debug().Str("mode", string(core.state.Mode)).Msg("start ignored: countdown finished")
		return
	}
	if core.state.Running {
		return
	}
	core.state.Running = true
	core.lastTick = core.scheduler.Now()
	core.startTicking()
	core.publish(EventStarted)
}

// Pause stops the countdown, keeping every whole second already elapsed.
func (core *Core) Pause() {
	if !core.state.Running {
		return
	}
	if core.settle() {
		return
	}
	core.state.Running = false
	core.stopTicking()
	core.publish(EventPaused)
}

// Toggle pauses a running countdown and starts a stopped one.
func (core *Core) Toggle() {
	if core.state.Running {
		core.Pause()
		return
	}
	core.Start()
}

// Reset rewinds the current mode to its full duration.
func (core *Core) Reset() {
	core.stopTicking()
	core.state.Running = false
	core.state.RemainingSeconds = core.state.TotalSeconds
	core.publish(EventReset)
}

// SetMode switches to mode with a fresh, stopped countdown.
func (core *Core) SetMode(mode model.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("set mode %q: %w", mode, ErrInvalidMode)
	}
	core.stopTicking()
	core.state = core.freshState(mode)
	core.publish(EventModeChanged)
	return nil
}

// SetDuration changes the length of mode. Any running countdown stops; when
// mode is the current mode the countdown is rebuilt with the new length.
func (core *Core) SetDuration(mode model.Mode, minutes int) error {
	if !mode.Valid() {
		return fmt.Errorf("set duration for %q: %w", mode, ErrInvalidMode)
	}
	if minutes <= 0 || minutes > MaxMinutes {
		return fmt.Errorf("set duration to %d minutes: %w", minutes, ErrInvalidDuration)
	}
	core.config.Durations = core.config.Durations.With(mode, minutes)
	core.stopTicking()
	if mode == core.state.Mode {
		core.state = core.freshState(mode)
	} else {
		core.state.Running = false
	}
	core.publish(EventDurationChanged)
	return nil
}

// Stop cancels the tick callback and closes subscriptions. The core keeps
// its state but no longer ticks.
func (core *Core) Stop() {
	core.stopTicking()
	core.state.Running = false
	core.store()

	core.subsMu.Lock()
	subs := core.subs
	core.subs = nil
	core.stopped = true
	core.subsMu.Unlock()
	for _, ch := range subs {
		close(ch)
	}
}

func (core *Core) tick() {
	if !core.state.Running {
		return
	}
	if core.advance(core.scheduler.Now()) {
		core.options.Metrics.Tick()
		if core.state.RemainingSeconds == 0 {
			core.complete()
			return
		}
		core.publish(EventTick)
	}
}

// advance subtracts the whole seconds elapsed since the anchor and moves the
// anchor by exactly that amount, carrying the sub-second rest forward.
func (core *Core) advance(now time.Time) bool {
	deltaMs := now.Sub(core.lastTick).Milliseconds()
	elapsed := int(deltaMs / 1000)
	if elapsed <= 0 {
		return false
	}
	core.lastTick = core.lastTick.Add(time.Duration(elapsed) * time.Second)
	remaining := core.state.RemainingSeconds - elapsed
	if remaining < 0 {
		remaining = 0
	}
	core.state.RemainingSeconds = remaining
	return true
}

// settle accounts for whole seconds a late tick has not delivered yet.
// It reports whether that finished the countdown.
func (core *Core) settle() bool {
	if !core.advance(core.scheduler.Now()) {
		return false
	}
	if core.state.RemainingSeconds == 0 {
		core.complete()
		return true
	}
	return false
}

func (core *Core) complete() {
	core.state.Running = false
	core.stopTicking()
	core.publish(EventCompleted)

	mode := core.state.Mode
	core.options.Metrics.Completed(string(mode))
	core.logger.Info().Str("mode", string(mode)).Int("total_seconds", core.state.TotalSeconds).Msg("countdown completed")

	if core.options.Notifier != nil {
		core.options.Notifier.Notify()
	}
	if mode == model.ModeFocus {
		core.logSession(model.SessionRecord{
			DurationMinutes: core.state.TotalSeconds / 60,
			BreakMinutes:    core.config.Durations.ShortBreakMinutes,
			Completed:       true,
		})
	}
}

func (core *Core) logSession(record model.SessionRecord) {
	sessions := core.options.Sessions
	if sessions == nil {
		return
	}
	timeout := core.options.LogTimeout
	logger := core.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		id, err := sessions.LogSession(ctx, record)
		if err != nil {
			logger.Error().Err(err).Int("duration_minutes", record.DurationMinutes).Msg("log focus session")
			return
		}
		logger.Info().Str("session_id", id).Int("duration_minutes", record.DurationMinutes).Msg("focus session logged")
	}()
}

func (core *Core) startTicking() {
	core.stopTicking()
	core.cancelTick = core.scheduler.Every(core.config.TickInterval, core.tick)
}

func (core *Core) stopTicking() {
	if core.cancelTick != nil {
		core.cancelTick()
		core.cancelTick = nil
	}
}

func (core *Core) freshState(mode model.Mode) State {
	total := core.config.Durations.Minutes(mode) * 60
	return State{
		Mode:             mode,
		TotalSeconds:     total,
		RemainingSeconds: total,
	}
}

func (core *Core) store() {
	snapshot := core.state
	core.current.Store(&snapshot)
}

func (core *Core) publish(eventType EventType) {
	core.store()
	event := Event{
		Type:  eventType,
		State: core.state,
		At:    core.scheduler.Now(),
	}

	observers := append([]*observer(nil), core.observers...)
	live := core.observers[:0]
	for _, entry := range core.observers {
		if entry.active {
			live = append(live, entry)
		}
	}
	core.observers = live
	for _, entry := range observers {
		if entry.active {
			entry.fn(event)
		}
	}

	core.subsMu.Lock()
	subs := append([]chan Event(nil), core.subs...)
	core.subsMu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

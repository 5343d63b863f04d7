// Package engine owns the timer, the mirror surface and the ambient audio for
// one running application, and offers them to the UI as a goroutine-safe API.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"focusdeck/internal/audio"
	"focusdeck/internal/core/model"
	"focusdeck/internal/core/sched"
	"focusdeck/internal/core/timer"
	"focusdeck/internal/metrics"
	"focusdeck/internal/mirror"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("engine closed")

// Config groups the settings of every owned component.
type Config struct {
	Timer  model.TimerConfig
	Mirror model.MirrorConfig
	Audio  model.AudioConfig
}

// Options carries the collaborators. Surface, Notifier, Sessions and the
// stores may be nil.
type Options struct {
	Surface  mirror.Surface
	Player   audio.Player
	Notifier timer.Notifier
	Sessions timer.SessionLogger
	Durable  audio.Store
	Session  audio.Store
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

type runner interface {
	sched.Scheduler
	Call(fn func()) bool
}

// Engine is created once at the application root and torn down with Close.
type Engine struct {
	runner runner
	loop   *sched.Loop
	logger zerolog.Logger

	core   *timer.Core
	mirror *mirror.Controller
	audio  *audio.Controller

	closed    atomic.Bool
	closeOnce sync.Once
	mu        sync.Mutex
	stop      context.CancelFunc
}

// New builds an engine on its own event loop. Call Run to start it.
func New(config Config, options Options) *Engine {
	loop := sched.NewLoop()
	engine := build(loop, config, options)
	engine.loop = loop
	return engine
}

func build(runner runner, config Config, options Options) *Engine {
	if options.Player == nil {
		options.Player = &audio.Silent{}
	}
	engine := &Engine{
		runner: runner,
		logger: options.Logger.With().Str("component", "engine").Logger(),
	}
	engine.core = timer.New(runner, config.Timer, timer.Options{
		Notifier: options.Notifier,
		Sessions: options.Sessions,
		Logger:   options.Logger,
		Metrics:  options.Metrics,
	})
	engine.mirror = mirror.New(runner, options.Surface, engine.core, config.Mirror, options.Logger, options.Metrics)
	engine.audio = audio.New(runner, options.Player, config.Audio, options.Durable, options.Session, options.Logger, options.Metrics)
	engine.core.Observe(engine.onTimerEvent)
	return engine
}

// onTimerEvent keeps the ambient loop in step with the countdown. A pause
// leaves the music running; a reset stops it.
func (engine *Engine) onTimerEvent(event timer.Event) {
	switch event.Type {
	case timer.EventStarted:
		engine.audio.Play()
	case timer.EventReset:
		engine.audio.Pause()
	}
}

// Run processes engine work until ctx is done or Close is called.
func (engine *Engine) Run(ctx context.Context) error {
	if engine.loop == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	ctx, cancel := context.WithCancel(ctx)
	engine.mu.Lock()
	if engine.closed.Load() {
		engine.mu.Unlock()
		cancel()
		return nil
	}
	engine.stop = cancel
	engine.mu.Unlock()

	engine.logger.Info().Msg("engine running")
	err := engine.loop.Run(ctx)
	if errors.Is(err, context.Canceled) && engine.closed.Load() {
		return nil
	}
	return err
}

// Close deactivates the mirror, releases the audio player, stops the
// countdown and stops the loop. It is safe to call more than once.
func (engine *Engine) Close() {
	engine.closeOnce.Do(func() {
		teardown := func() {
			engine.mirror.Deactivate()
			engine.audio.Close()
			engine.core.Stop()
		}
		if engine.loop != nil && engine.loop.Running() {
			engine.runner.Call(teardown)
		} else {
			teardown()
		}

		engine.mu.Lock()
		engine.closed.Store(true)
		stop := engine.stop
		engine.mu.Unlock()
		if stop != nil {
			stop()
		}
		engine.logger.Info().Msg("engine closed")
	})
}

// Snapshot returns the current timer state.
func (engine *Engine) Snapshot() timer.State {
	return engine.core.Snapshot()
}

// Subscribe returns a channel of timer events for consumers off the loop.
func (engine *Engine) Subscribe(buffer int) <-chan timer.Event {
	return engine.core.Subscribe(buffer)
}

// Durations returns the configured minutes per mode.
func (engine *Engine) Durations() model.Durations {
	var durations model.Durations
	engine.call(func() { durations = engine.core.Durations() })
	return durations
}

func (engine *Engine) Start()  { engine.call(engine.core.Start) }
func (engine *Engine) Pause()  { engine.call(engine.core.Pause) }
func (engine *Engine) Toggle() { engine.call(engine.core.Toggle) }
func (engine *Engine) Reset()  { engine.call(engine.core.Reset) }

// SetMode switches mode with a fresh, stopped countdown.
func (engine *Engine) SetMode(mode model.Mode) error {
	var err error
	if !engine.call(func() { err = engine.core.SetMode(mode) }) {
		return ErrClosed
	}
	return err
}

// SetDuration changes the minutes of mode.
func (engine *Engine) SetDuration(mode model.Mode, minutes int) error {
	var err error
	if !engine.call(func() { err = engine.core.SetDuration(mode, minutes) }) {
		return ErrClosed
	}
	return err
}

// ActivateMirror shows the mirror surface.
func (engine *Engine) ActivateMirror() error {
	var err error
	if !engine.call(func() { err = engine.mirror.Activate() }) {
		return ErrClosed
	}
	return err
}

// DeactivateMirror hides the mirror surface.
func (engine *Engine) DeactivateMirror() {
	engine.call(engine.mirror.Deactivate)
}

// ToggleMirror shows or hides the mirror surface.
func (engine *Engine) ToggleMirror() error {
	var err error
	if !engine.call(func() { err = engine.mirror.Toggle() }) {
		return ErrClosed
	}
	return err
}

// MirrorActive reports whether the mirror surface is shown.
func (engine *Engine) MirrorActive() bool {
	var active bool
	engine.call(func() { active = engine.mirror.Active() })
	return active
}

func (engine *Engine) PlayMusic()   { engine.call(engine.audio.Play) }
func (engine *Engine) PauseMusic()  { engine.call(engine.audio.Pause) }
func (engine *Engine) ToggleMusic() { engine.call(engine.audio.Toggle) }

func (engine *Engine) SetVolume(volume float64) {
	engine.call(func() { engine.audio.SetVolume(volume) })
}

func (engine *Engine) SetMuted(muted bool) {
	engine.call(func() { engine.audio.SetMuted(muted) })
}

func (engine *Engine) SetMusicSource(uri string) {
	engine.call(func() { engine.audio.SetSource(uri) })
}

// AudioState returns the ambient audio snapshot.
func (engine *Engine) AudioState() audio.State {
	var state audio.State
	engine.call(func() { state = engine.audio.State() })
	return state
}

func (engine *Engine) call(fn func()) bool {
	if engine.closed.Load() {
		return false
	}
	return engine.runner.Call(fn)
}

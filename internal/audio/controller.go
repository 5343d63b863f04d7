// Package audio keeps an ambient loop playing while the engine wants it to,
// and restarts it when something outside the engine stops it.
package audio

import (
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"focusdeck/internal/core/model"
	"focusdeck/internal/core/sched"
	"focusdeck/internal/metrics"
)

// Persistence keys. Source, mute and volume are durable; the playing intent
// only lives as long as the process.
const (
	KeySource  = "audio.source"
	KeyMuted   = "audio.muted"
	KeyVolume  = "audio.volume"
	KeyPlaying = "audio.playing"
)

const (
	defaultVolume           = 0.5
	defaultWatchdogInterval = 2 * time.Second
)

// Player is the underlying audio surface.
type Player interface {
	Load(uri string) error
	Play() error
	Pause()
	Paused() bool
	SetVolume(volume float64)
	SetMuted(muted bool)
	Close()
}

// Store persists controller state. Failures are logged and otherwise ignored.
type Store interface {
	Load(key string, dst any) (bool, error)
	Save(key string, value any) error
}

// State is a snapshot of the controller.
type State struct {
	Source  string  `json:"source"`
	Playing bool    `json:"playing"`
	Muted   bool    `json:"muted"`
	Volume  float64 `json:"volume"`
}

// Controller owns one Player. All methods must run on the scheduler.
type Controller struct {
	scheduler sched.Scheduler
	player    Player
	durable   Store
	session   Store
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	suppress  *sched.Suppressor

	state  State
	closed bool
	cancel sched.Cancel
}

// New restores persisted state, starts the watchdog and resumes playback if
// this process was playing before the controller was last torn down.
func New(scheduler sched.Scheduler, player Player, config model.AudioConfig, durable, session Store, logger zerolog.Logger, m *metrics.Metrics) *Controller {
	if config.WatchdogInterval <= 0 {
		config.WatchdogInterval = defaultWatchdogInterval
	}
	volume := defaultVolume
	if config.DefaultVolume > 0 {
		volume = ClampVolume(config.DefaultVolume)
	}
	controller := &Controller{
		scheduler: scheduler,
		player:    player,
		durable:   durable,
		session:   session,
		logger:    logger.With().Str("component", "audio").Logger(),
		metrics:   m,
		suppress:  sched.NewSuppressor(scheduler),
		state: State{
			Source: config.DefaultSource,
			Volume: volume,
		},
	}

	controller.load(durable, KeySource, &controller.state.Source)
	controller.load(durable, KeyMuted, &controller.state.Muted)
	controller.load(durable, KeyVolume, &controller.state.Volume)
	controller.state.Volume = ClampVolume(controller.state.Volume)

	var resume bool
	controller.load(session, KeyPlaying, &resume)

	player.SetVolume(controller.state.Volume)
	player.SetMuted(controller.state.Muted)
	if controller.state.Source != "" {
		if err := player.Load(controller.state.Source); err != nil {
			controller.logger.Warn().Err(err).Str("source", controller.state.Source).Msg("load audio source")
		}
	}

	controller.cancel = scheduler.Every(config.WatchdogInterval, controller.watchdog)
	if resume {
		controller.Play()
	}
	return controller
}

// State returns the current snapshot.
func (controller *Controller) State() State {
	return controller.state
}

// Suppressed reports whether the watchdog is currently held off.
func (controller *Controller) Suppressed() bool {
	return controller.suppress.Active()
}

// SetSource switches the looped track. Playback continues on the new source
// when it was playing.
func (controller *Controller) SetSource(uri string) {
	if controller.closed || uri == controller.state.Source {
		return
	}
	controller.state.Source = uri
	controller.save(controller.durable, KeySource, uri)

	controller.suppress.Do(func() {
		controller.player.Pause()
		if uri == "" {
			return
		}
		if err := controller.player.Load(uri); err != nil {
			controller.logger.Warn().Err(err).Str("source", uri).Msg("load audio source")
			return
		}
		if controller.state.Playing {
			controller.startPlayer()
		}
	})
}

// Play marks playback as wanted and starts the player. A rejected start is
// retried by the watchdog.
func (controller *Controller) Play() {
	if controller.closed {
		return
	}
	if controller.state.Source == "" {
		controller.logger.Debug().Msg("play without audio source")
		return
	}
	if !controller.state.Playing {
		controller.state.Playing = true
		controller.save(controller.session, KeyPlaying, true)
	}
	if !controller.player.Paused() {
		return
	}
	controller.startPlayer()
}

// Pause stops playback. The watchdog leaves an explicit pause alone.
func (controller *Controller) Pause() {
	if controller.closed {
		return
	}
	if controller.state.Playing {
		controller.state.Playing = false
		controller.save(controller.session, KeyPlaying, false)
	}
	controller.suppress.Do(controller.player.Pause)
}

// Toggle pauses when playing and plays otherwise.
func (controller *Controller) Toggle() {
	if controller.state.Playing {
		controller.Pause()
		return
	}
	controller.Play()
}

// SetMuted mutes or unmutes without touching the playing intent.
func (controller *Controller) SetMuted(muted bool) {
	if controller.closed {
		return
	}
	controller.state.Muted = muted
	controller.save(controller.durable, KeyMuted, muted)
	controller.player.SetMuted(muted)
}

// SetVolume clamps volume into [0, 1] and applies it.
func (controller *Controller) SetVolume(volume float64) {
	if controller.closed {
		return
	}
	controller.state.Volume = ClampVolume(volume)
	controller.save(controller.durable, KeyVolume, controller.state.Volume)
	controller.player.SetVolume(controller.state.Volume)
}

// Close stops the watchdog and releases the player. The session-scoped
// playing intent is kept so a new controller in this process resumes.
func (controller *Controller) Close() {
	if controller.closed {
		return
	}
	controller.closed = true
	if controller.cancel != nil {
		controller.cancel()
	}
	controller.suppress.Reset()
	controller.player.Close()
	controller.logger.Debug().Msg("audio controller closed")
}

// ClampVolume limits volume to [0, 1].
func ClampVolume(volume float64) float64 {
	switch {
	case math.IsNaN(volume), volume < 0:
		return 0
	case volume > 1:
		return 1
	default:
		return volume
	}
}

func (controller *Controller) watchdog() {
	if controller.closed || !controller.state.Playing || controller.state.Source == "" {
		return
	}
	if !controller.player.Paused() {
		return
	}
	if controller.suppress.Active() {
		controller.metrics.EchoSuppressed(metrics.SurfaceAudio)
		return
	}
	controller.metrics.WatchdogReplay(metrics.SurfaceAudio)
	controller.logger.Debug().Msg("ambient audio interrupted, replaying")
	controller.startPlayer()
}

func (controller *Controller) startPlayer() {
	controller.suppress.Do(func() {
		if err := controller.player.Play(); err != nil {
			controller.metrics.PlaybackRejected(metrics.SurfaceAudio)
			controller.logger.Debug().Err(err).Msg("audio play rejected")
		}
	})
}

func (controller *Controller) load(store Store, key string, dst any) {
	if store == nil {
		return
	}
	if _, err := store.Load(key, dst); err != nil {
		controller.logger.Warn().Err(err).Str("key", key).Msg("restore audio state")
	}
}

func (controller *Controller) save(store Store, key string, value any) {
	if store == nil {
		return
	}
	if err := store.Save(key, value); err != nil {
		controller.logger.Warn().Err(err).Str("key", key).Msg("persist audio state")
	}
}

// Silent is a Player for hosts without an audio backend. Every play request
// is rejected, so the controller keeps its intent and nothing is heard.
type Silent struct{}

// ErrNoBackend is returned by Silent.Play.
var ErrNoBackend = errors.New("no audio backend")

func (silent *Silent) Load(string) error { return nil }
func (silent *Silent) Play() error       { return ErrNoBackend }
func (silent *Silent) Pause()            {}
func (silent *Silent) Paused() bool      { return true }
func (silent *Silent) SetVolume(float64) {}
func (silent *Silent) SetMuted(bool)     {}
func (silent *Silent) Close()            {}

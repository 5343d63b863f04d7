// Package mirror drives the always-on-top mirror surface from the timer and
// maps the surface's transport control back onto the timer.
package mirror

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"focusdeck/internal/core/model"
	"focusdeck/internal/core/sched"
	"focusdeck/internal/core/timer"
	"focusdeck/internal/metrics"
)

// ErrUnsupportedCapability indicates the host cannot show a mirror surface.
var ErrUnsupportedCapability = errors.New("mirror surface unsupported")

const (
	defaultRedrawInterval   = 250 * time.Millisecond
	defaultWatchdogInterval = 3 * time.Second
)

// Timer is the part of the timer core the controller needs.
type Timer interface {
	Snapshot() timer.State
	Start()
	Pause()
	Observe(fn func(timer.Event)) sched.Cancel
}

// Controller owns one Surface. All methods must run on the scheduler.
type Controller struct {
	scheduler sched.Scheduler
	surface   Surface
	timer     Timer
	config    model.MirrorConfig
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	suppress  *sched.Suppressor

	active        bool
	generation    int
	syncedRunning bool
	cancels       []sched.Cancel
}

// New creates an inactive controller.
func New(scheduler sched.Scheduler, surface Surface, source Timer, config model.MirrorConfig, logger zerolog.Logger, m *metrics.Metrics) *Controller {
	if config.RedrawInterval <= 0 {
		config.RedrawInterval = defaultRedrawInterval
	}
	if config.WatchdogInterval <= 0 {
		config.WatchdogInterval = defaultWatchdogInterval
	}
	return &Controller{
		scheduler: scheduler,
		surface:   surface,
		timer:     source,
		config:    config,
		logger:    logger.With().Str("component", "mirror").Logger(),
		metrics:   m,
		suppress:  sched.NewSuppressor(scheduler),
	}
}

// Active reports whether the surface is shown.
func (controller *Controller) Active() bool {
	return controller.active
}

// Suppressed reports whether inbound transport events are currently ignored.
func (controller *Controller) Suppressed() bool {
	return controller.suppress.Active()
}

// Activate shows the surface. It fails with ErrUnsupportedCapability, and
// creates nothing, when the host has no mirror support.
func (controller *Controller) Activate() error {
	if controller.active {
		return nil
	}
	if controller.surface == nil || !controller.surface.Supported() {
		controller.logger.Warn().Msg("mirror surface unsupported")
		return ErrUnsupportedCapability
	}
	if err := controller.surface.Open(); err != nil {
		return fmt.Errorf("open mirror surface: %w", err)
	}

	controller.generation++
	generation := controller.generation
	controller.surface.OnTransport(func(event TransportEvent) {
		controller.scheduler.Post(func() {
			controller.handleTransport(generation, event)
		})
	})

	if err := controller.surface.EnterAlwaysOnTop(); err != nil {
		controller.surface.OnTransport(nil)
		controller.surface.Close()
		return fmt.Errorf("enter always-on-top: %w", err)
	}

	controller.active = true
	controller.cancels = append(controller.cancels,
		controller.scheduler.Every(controller.config.RedrawInterval, controller.redraw),
		controller.scheduler.Every(controller.config.WatchdogInterval, controller.watchdog),
		controller.timer.Observe(controller.onTimerEvent),
	)
	controller.redraw()
	controller.drive(controller.timer.Snapshot().Running)
	controller.logger.Info().Msg("mirror activated")
	return nil
}

// Deactivate releases the surface and cancels every periodic callback.
func (controller *Controller) Deactivate() {
	if !controller.active {
		return
	}
	controller.active = false
	controller.generation++
	for _, cancel := range controller.cancels {
		cancel()
	}
	controller.cancels = nil
	controller.surface.OnTransport(nil)
	controller.surface.Close()
	controller.suppress.Reset()
	controller.logger.Info().Msg("mirror deactivated")
}

// Toggle activates an inactive surface and deactivates an active one.
func (controller *Controller) Toggle() error {
	if controller.active {
		controller.Deactivate()
		return nil
	}
	return controller.Activate()
}

func (controller *Controller) redraw() {
	if !controller.active {
		return
	}
	controller.surface.Draw(FrameFor(controller.timer.Snapshot()))
}

func (controller *Controller) onTimerEvent(event timer.Event) {
	if !controller.active {
		return
	}
	controller.surface.Draw(FrameFor(event.State))
	if event.State.Running != controller.syncedRunning {
		controller.drive(event.State.Running)
	}
}

// drive makes the surface's transport match running without the resulting
// echo being read back as a user action.
func (controller *Controller) drive(running bool) {
	controller.syncedRunning = running
	controller.suppress.Do(func() {
		if !running {
			controller.surface.Pause()
			return
		}
		if err := controller.surface.Play(); err != nil {
			controller.metrics.PlaybackRejected(metrics.SurfaceMirror)
			controller.logger.Debug().Err(err).Msg("mirror play rejected")
		}
	})
}

func (controller *Controller) watchdog() {
	if !controller.active {
		return
	}
	if !controller.timer.Snapshot().Running || !controller.surface.Paused() {
		return
	}
	controller.metrics.WatchdogReplay(metrics.SurfaceMirror)
	controller.logger.Debug().Msg("mirror playback stalled, replaying")
	controller.drive(true)
}

func (controller *Controller) handleTransport(generation int, event TransportEvent) {
	if !controller.active || generation != controller.generation {
		return
	}
	if event == TransportClosed {
		controller.Deactivate()
		return
	}
	if controller.suppress.Active() {
		controller.metrics.EchoSuppressed(metrics.SurfaceMirror)
		controller.logger.Debug().Str("event", string(event)).Msg("mirror echo ignored")
		return
	}

	switch event {
	case TransportPlay:
		controller.timer.Start()
	case TransportPause:
		controller.timer.Pause()
	default:
		return
	}

	if running := controller.timer.Snapshot().Running; running != controller.syncedRunning || running != (event == TransportPlay) {
		controller.drive(running)
	}
}

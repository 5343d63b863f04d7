package mirror

import (
	"focusdeck/internal/core/model"
	"focusdeck/internal/core/timer"
)

// TransportEvent is reported by the surface's native transport control.
type TransportEvent string

const (
	TransportPlay  TransportEvent = "play"
	TransportPause TransportEvent = "pause"
	// TransportClosed reports that the host closed the surface.
	TransportClosed TransportEvent = "closed"
)

// Surface is an always-on-top output with its own play/pause affordance.
//
// Play and Pause behave like a media element: the resulting transport event
// is reported through the OnTransport handler, including when the call was
// programmatic. Implementations must hand that echo to the handler before
// Play or Pause returns, or not at all.
type Surface interface {
	// Supported reports whether the host can show a mirror surface at all.
	Supported() bool
	// Open allocates the drawing surface.
	Open() error
	// Draw paints one frame. It must not block.
	Draw(frame Frame)
	// Play starts the surface's underlying playback. It may be rejected.
	Play() error
	// Pause stops the underlying playback.
	Pause()
	// Paused reports whether the underlying playback is stopped.
	Paused() bool
	// EnterAlwaysOnTop asks the host to keep the surface above other windows.
	EnterAlwaysOnTop() error
	// OnTransport installs the transport handler. nil removes it.
	OnTransport(handler func(TransportEvent))
	// Close releases the surface.
	Close()
}

// Frame is everything a surface paints.
type Frame struct {
	Clock     string
	Progress  float64
	Status    string
	Mode      model.Mode
	ModeLabel string
	Running   bool
}

// Status labels.
const (
	StatusRunning = "Running"
	StatusPaused  = "Paused"
)

// FrameFor renders state into a Frame.
func FrameFor(state timer.State) Frame {
	status := StatusPaused
	if state.Running {
		status = StatusRunning
	}
	return Frame{
		Clock:     state.Clock(),
		Progress:  state.Progress(),
		Status:    status,
		Mode:      state.Mode,
		ModeLabel: state.Mode.Label(),
		Running:   state.Running,
	}
}

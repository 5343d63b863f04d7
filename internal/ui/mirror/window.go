// Package mirror implements the always-on-top mirror surface as a small fyne
// window with its own play/pause transport button.
package mirror

import (
	"errors"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	engmirror "focusdeck/internal/mirror"
	"focusdeck/resources"
)

var errNotOpen = errors.New("mirror window not open")

var (
	windowColor = color.NRGBA{R: 16, G: 18, B: 22, A: 255}
	clockColor  = color.NRGBA{R: 245, G: 246, B: 248, A: 255}
	mutedColor  = color.NRGBA{R: 154, G: 164, B: 178, A: 255}
)

// Window is a mirror.Surface. Its methods may be called from any goroutine
// except the fyne thread: Open and EnterAlwaysOnTop wait for it. Widget
// updates hop onto the fyne thread.
type Window struct {
	app fyne.App

	mu      sync.Mutex
	window  fyne.Window
	playing bool
	handler func(engmirror.TransportEvent)

	mode     *canvas.Text
	clock    *canvas.Text
	status   *canvas.Text
	progress *widget.ProgressBar
	button   *widget.Button
}

var _ engmirror.Surface = (*Window)(nil)

// New creates a surface bound to app. Nothing is shown until Open.
func New(app fyne.App) *Window {
	return &Window{app: app}
}

// Supported reports whether the driver can manage desktop windows.
func (surface *Window) Supported() bool {
	if surface.app == nil {
		return false
	}
	_, ok := surface.app.Driver().(desktop.Driver)
	return ok
}

// Open creates and shows the window.
func (surface *Window) Open() error {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	if surface.window != nil {
		return nil
	}
	fyne.DoAndWait(func() {
		surface.build()
		surface.window.Show()
	})
	return nil
}

func (surface *Window) build() {
	window := surface.app.NewWindow("Focusdeck mirror")
	window.SetIcon(resources.Icon(true))
	window.SetPadded(false)
	window.SetFixedSize(true)

	surface.mode = canvas.NewText("", mutedColor)
	surface.mode.TextSize = 12
	surface.clock = canvas.NewText("--:--", clockColor)
	surface.clock.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	surface.clock.TextSize = 34
	surface.clock.Alignment = fyne.TextAlignCenter
	surface.status = canvas.NewText("", mutedColor)
	surface.status.TextSize = 12
	surface.status.Alignment = fyne.TextAlignTrailing
	surface.progress = widget.NewProgressBar()
	surface.progress.TextFormatter = func() string { return "" }
	surface.button = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), surface.userToggle)

	header := container.NewBorder(nil, nil, surface.mode, surface.status)
	footer := container.NewBorder(nil, nil, surface.button, nil, surface.progress)
	body := container.NewBorder(header, footer, nil, nil, surface.clock)
	window.SetContent(container.NewStack(canvas.NewRectangle(windowColor), container.NewPadded(body)))
	window.Resize(fyne.NewSize(260, 130))
	window.SetCloseIntercept(surface.hostClosed)
	surface.window = window
}

// Draw paints a frame without waiting for the UI thread.
func (surface *Window) Draw(frame engmirror.Frame) {
	surface.mu.Lock()
	open := surface.window != nil
	surface.mu.Unlock()
	if !open {
		return
	}
	fyne.Do(func() {
		surface.mode.Text = frame.ModeLabel
		surface.clock.Text = frame.Clock
		surface.status.Text = frame.Status
		surface.mode.Refresh()
		surface.clock.Refresh()
		surface.status.Refresh()
		surface.progress.SetValue(frame.Progress)
	})
}

// Play starts the surface playback and echoes it to the transport handler.
func (surface *Window) Play() error {
	if !surface.setPlaying(true) {
		return errNotOpen
	}
	surface.emit(engmirror.TransportPlay)
	return nil
}

// Pause stops the surface playback and echoes it to the transport handler.
func (surface *Window) Pause() {
	if surface.setPlaying(false) {
		surface.emit(engmirror.TransportPause)
	}
}

// Paused implements mirror.Surface.
func (surface *Window) Paused() bool {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	return !surface.playing
}

// EnterAlwaysOnTop pins the window above others where the host allows it.
func (surface *Window) EnterAlwaysOnTop() error {
	surface.mu.Lock()
	window := surface.window
	surface.mu.Unlock()
	if window == nil {
		return errNotOpen
	}
	var err error
	fyne.DoAndWait(func() { err = keepOnTop(window) })
	return err
}

// OnTransport implements mirror.Surface.
func (surface *Window) OnTransport(handler func(engmirror.TransportEvent)) {
	surface.mu.Lock()
	defer surface.mu.Unlock()
	surface.handler = handler
}

// Close hides and releases the window.
func (surface *Window) Close() {
	surface.mu.Lock()
	window := surface.window
	surface.window = nil
	surface.playing = false
	surface.mu.Unlock()
	if window != nil {
		fyne.Do(window.Close)
	}
}

// userToggle runs on the UI thread when the transport button is tapped.
func (surface *Window) userToggle() {
	if surface.Paused() {
		_ = surface.Play()
		return
	}
	surface.Pause()
}

func (surface *Window) hostClosed() {
	surface.emit(engmirror.TransportClosed)
}

// setPlaying updates the playback flag and the button icon. It reports false
// when the window is not open.
func (surface *Window) setPlaying(playing bool) bool {
	surface.mu.Lock()
	if surface.window == nil {
		surface.mu.Unlock()
		return false
	}
	surface.playing = playing
	button := surface.button
	surface.mu.Unlock()

	icon := theme.MediaPlayIcon()
	if playing {
		icon = theme.MediaPauseIcon()
	}
	fyne.Do(func() { button.SetIcon(icon) })
	return true
}

func (surface *Window) emit(event engmirror.TransportEvent) {
	surface.mu.Lock()
	handler := surface.handler
	surface.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

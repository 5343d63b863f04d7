// Package overlay shows the draggable timer widget inside the main window.
// The window's canvas is the viewport the widget is kept within.
package overlay

import (
	"context"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"focusdeck/internal/core/position"
	"focusdeck/internal/core/timer"
	"focusdeck/internal/ui/animation"
	"focusdeck/resources"
)

// Controls are the timer commands the widget issues.
type Controls interface {
	Toggle()
	Reset()
}

// Window manages the main window and the timer widget in it.
type Window struct {
	app      fyne.App
	window   fyne.Window
	manager  *position.Manager
	card     *timerCard
	layout   *viewportLayout
	controls Controls
	engine   *animation.Engine
	cancel   context.CancelFunc
	running  bool
}

const (
	defaultWindowWidth  = float32(960)
	defaultWindowHeight = float32(600)
)

var (
	backgroundColor = color.NRGBA{R: 24, G: 26, B: 31, A: 255}
	cardColor       = color.NRGBA{R: 38, G: 42, B: 51, A: 240}
	clockColor      = color.NRGBA{R: 245, G: 246, B: 248, A: 255}
	labelColor      = color.NRGBA{R: 154, G: 164, B: 178, A: 255}
)

// New creates the main window. manager owns the widget position; its
// config decides the widget size.
func New(app fyne.App, controls Controls, manager *position.Manager, widgetSize int) *Window {
	window := app.NewWindow("Focusdeck")
	window.SetIcon(resources.Icon(false))
	window.SetPadded(false)

	card := newTimerCard(float32(widgetSize))
	// The engine may be waiting on the UI thread, so commands leave it.
	card.toggle.OnTapped = func() { go controls.Toggle() }
	card.reset.OnTapped = func() { go controls.Reset() }

	overlay := &Window{
		app:      app,
		window:   window,
		manager:  manager,
		card:     card,
		controls: controls,
	}
	overlay.layout = &viewportLayout{manager: manager, card: card}
	card.onDrag = overlay.dragged
	card.onDragEnd = overlay.dragEnded
	overlay.engine = animation.New(animation.DefaultConfig(), overlay.SetSprite)

	background := canvas.NewRectangle(backgroundColor)
	viewport := container.New(overlay.layout, card)
	window.SetContent(container.NewStack(background, viewport))
	window.Resize(fyne.NewSize(defaultWindowWidth, defaultWindowHeight))
	window.SetCloseIntercept(window.Hide)
	return overlay
}

// Window returns the underlying fyne window.
func (overlay *Window) Window() fyne.Window {
	return overlay.window
}

// Show brings the window forward.
func (overlay *Window) Show() {
	overlay.window.Show()
	overlay.window.RequestFocus()
}

// Hide hides the window. The widget keeps its stored position.
func (overlay *Window) Hide() {
	overlay.stopAnimation()
	overlay.window.Hide()
}

// Render paints state. It must be called on the UI thread.
func (overlay *Window) Render(state timer.State) {
	overlay.card.render(state)
	if state.Running == overlay.running {
		return
	}
	overlay.running = state.Running
	if state.Running {
		overlay.startAnimation(func(ctx context.Context) {
			overlay.engine.Pulse(ctx, animation.PulseSpec{Rest: resources.Icon(true), Beat: resources.Icon(false)})
		})
		return
	}
	overlay.stopAnimation()
	overlay.card.badge.Resource = resources.Icon(false)
	overlay.card.badge.Refresh()
}

// Completed flashes the widget badge.
func (overlay *Window) Completed() {
	overlay.running = false
	overlay.startAnimation(func(ctx context.Context) {
		overlay.engine.Flash(ctx, animation.FlashSpec{
			Lit:  resources.Icon(true),
			Dim:  resources.Icon(false),
			Rest: resources.Icon(false),
		})
	})
}

// SetSprite updates the badge from any goroutine.
func (overlay *Window) SetSprite(resource fyne.Resource) {
	fyne.Do(func() {
		overlay.card.badge.Resource = resource
		overlay.card.badge.Refresh()
	})
}

func (overlay *Window) startAnimation(run func(context.Context)) {
	overlay.stopAnimation()
	ctx, cancel := context.WithCancel(context.Background())
	overlay.cancel = cancel
	run(ctx)
}

func (overlay *Window) stopAnimation() {
	if overlay.cancel != nil {
		overlay.cancel()
		overlay.cancel = nil
	}
	overlay.engine.Stop()
}

// dragged moves the widget with the pointer, clamped to the viewport but not
// yet persisted.
func (overlay *Window) dragged(delta fyne.Delta) {
	overlay.layout.dragging = true
	current := overlay.card.Position()
	horizontal := overlay.manager.HorizontalBounds()
	vertical := overlay.manager.VerticalBounds()
	x := position.Clamp(int(current.X+delta.DX), horizontal.Min, horizontal.Max)
	y := position.Clamp(int(current.Y+delta.DY), vertical.Min, vertical.Max)
	overlay.card.Move(fyne.NewPos(float32(x), float32(y)))
}

func (overlay *Window) dragEnded() {
	overlay.layout.dragging = false
	current := overlay.card.Position()
	point := overlay.manager.SetPosition(int(current.X), int(current.Y))
	overlay.card.Move(fyne.NewPos(float32(point.X), float32(point.Y)))
}

// viewportLayout places the widget at the managed position and re-clamps it
// whenever the window is resized.
type viewportLayout struct {
	manager  *position.Manager
	card     *timerCard
	dragging bool
}

func (layout *viewportLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	width, height := int(size.Width), int(size.Height)
	viewport := layout.manager.Viewport()
	point := layout.manager.Position()
	if viewport.Width != width || viewport.Height != height {
		point = layout.manager.OnViewportResize(width, height)
	}
	for _, object := range objects {
		object.Resize(object.MinSize())
		if !layout.dragging {
			object.Move(fyne.NewPos(float32(point.X), float32(point.Y)))
		}
	}
}

func (layout *viewportLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return layout.card.MinSize()
}

// timerCard is the draggable widget.
type timerCard struct {
	widget.BaseWidget
	side      float32
	mode      *canvas.Text
	clock     *canvas.Text
	status    *canvas.Text
	badge     *canvas.Image
	progress  *widget.ProgressBar
	toggle    *widget.Button
	reset     *widget.Button
	onDrag    func(fyne.Delta)
	onDragEnd func()
}

func newTimerCard(side float32) *timerCard {
	mode := canvas.NewText("Focus", labelColor)
	mode.TextStyle = fyne.TextStyle{Bold: true}
	mode.TextSize = 14

	clock := canvas.NewText("--:--", clockColor)
	clock.Alignment = fyne.TextAlignCenter
	clock.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	clock.TextSize = side / 5

	status := canvas.NewText("", labelColor)
	status.Alignment = fyne.TextAlignCenter
	status.TextSize = 12

	badge := canvas.NewImageFromResource(resources.Icon(false))
	badge.FillMode = canvas.ImageFillContain
	badge.SetMinSize(fyne.NewSize(20, 20))

	card := &timerCard{
		side:     side,
		mode:     mode,
		clock:    clock,
		status:   status,
		badge:    badge,
		progress: widget.NewProgressBar(),
		toggle:   widget.NewButton("Start", nil),
		reset:    widget.NewButton("Reset", nil),
	}
	card.progress.TextFormatter = func() string { return "" }
	card.ExtendBaseWidget(card)
	return card
}

func (card *timerCard) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(cardColor)
	background.CornerRadius = 12
	header := container.NewBorder(nil, nil, nil, card.badge, card.mode)
	buttons := container.NewGridWithColumns(2, card.toggle, card.reset)
	body := container.NewBorder(header, container.NewVBox(card.progress, buttons), nil, nil,
		container.NewVBox(card.clock, card.status))
	return widget.NewSimpleRenderer(container.NewStack(background, container.NewPadded(body)))
}

// MinSize keeps the widget square at the configured size.
func (card *timerCard) MinSize() fyne.Size {
	return fyne.NewSize(card.side, card.side)
}

func (card *timerCard) Dragged(event *fyne.DragEvent) {
	if card.onDrag != nil {
		card.onDrag(event.Dragged)
	}
}

func (card *timerCard) DragEnd() {
	if card.onDragEnd != nil {
		card.onDragEnd()
	}
}

func (card *timerCard) render(state timer.State) {
	card.mode.Text = state.Mode.Label()
	card.clock.Text = state.Clock()
	card.status.Text = statusText(state)
	card.progress.SetValue(state.Progress())
	if state.Running {
		card.toggle.SetText("Pause")
	} else {
		card.toggle.SetText("Start")
	}
	card.mode.Refresh()
	card.clock.Refresh()
	card.status.Refresh()
}

func statusText(state timer.State) string {
	switch state.Phase() {
	case timer.PhaseRunning:
		return "Running"
	case timer.PhasePaused:
		return "Paused"
	case timer.PhaseCompleted:
		return "Done"
	default:
		return "Ready"
	}
}

// Package position keeps the draggable overlay widget inside the viewport and
// remembers where the user left it.
package position

import (
	"github.com/rs/zerolog"

	"focusdeck/internal/core/model"
)

// StoreKey is the durable key of the overlay position.
const StoreKey = "overlay.position"

// Store persists the position. Failures are logged and otherwise ignored.
type Store interface {
	Load(key string, dst any) (bool, error)
	Save(key string, value any) error
}

// Point is a widget position in viewport pixels.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Size is a viewport size in pixels.
type Size struct {
	Width  int
	Height int
}

// Bounds is the inclusive range a coordinate may take on one axis.
type Bounds struct {
	Min int
	Max int
}

// Manager owns the overlay position. It is not safe for concurrent use; the
// UI thread owns it.
type Manager struct {
	config   model.OverlayConfig
	viewport Size
	position Point
	store    Store
	logger   zerolog.Logger
}

// New restores the stored position, or places the widget in the bottom-right
// corner, clamped against viewport.
func New(config model.OverlayConfig, viewport Size, store Store, logger zerolog.Logger) *Manager {
	if config.EdgeGap < 0 {
		config.EdgeGap = 0
	}
	if config.WidgetSize < 0 {
		config.WidgetSize = 0
	}
	manager := &Manager{
		config:   config,
		viewport: viewport,
		store:    store,
		logger:   logger.With().Str("component", "overlay_position").Logger(),
	}

	restored := false
	if store != nil {
		var saved Point
		found, err := store.Load(StoreKey, &saved)
		if err != nil {
			manager.logger.Warn().Err(err).Msg("restore overlay position")
		} else if found {
			manager.position = saved
			restored = true
		}
	}
	if !restored {
		manager.position = Point{
			X: manager.axis(viewport.Width).Max,
			Y: manager.axis(viewport.Height).Max,
		}
	}
	manager.position = manager.clampPoint(manager.position)
	return manager
}

// Position returns the current position.
func (manager *Manager) Position() Point {
	return manager.position
}

// Viewport returns the last known viewport size.
func (manager *Manager) Viewport() Size {
	return manager.viewport
}

// SetPosition clamps (x, y) into the viewport and persists the result.
func (manager *Manager) SetPosition(x, y int) Point {
	manager.position = manager.clampPoint(Point{X: x, Y: y})
	manager.persist()
	return manager.position
}

// OnViewportResize re-clamps the current position against the new viewport.
func (manager *Manager) OnViewportResize(width, height int) Point {
	manager.viewport = Size{Width: width, Height: height}
	clamped := manager.clampPoint(manager.position)
	if clamped != manager.position {
		manager.position = clamped
		manager.persist()
	}
	return manager.position
}

// HorizontalBounds returns the allowed x range for the current viewport.
func (manager *Manager) HorizontalBounds() Bounds {
	return manager.axis(manager.viewport.Width)
}

// VerticalBounds returns the allowed y range for the current viewport.
func (manager *Manager) VerticalBounds() Bounds {
	return manager.axis(manager.viewport.Height)
}

// Clamp limits value to [min, max].
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// AxisBounds computes the allowed range on one axis. The upper bound never
// drops below the edge gap, even when the widget does not fit.
func AxisBounds(dimension, widgetSize, edgeGap int) Bounds {
	upper := dimension - widgetSize - edgeGap
	if upper < edgeGap {
		upper = edgeGap
	}
	return Bounds{Min: edgeGap, Max: upper}
}

func (manager *Manager) axis(dimension int) Bounds {
	return AxisBounds(dimension, manager.config.WidgetSize, manager.config.EdgeGap)
}

func (manager *Manager) clampPoint(point Point) Point {
	horizontal := manager.axis(manager.viewport.Width)
	vertical := manager.axis(manager.viewport.Height)
	return Point{
		X: Clamp(point.X, horizontal.Min, horizontal.Max),
		Y: Clamp(point.Y, vertical.Min, vertical.Max),
	}
}

func (manager *Manager) persist() {
	if manager.store == nil {
		return
	}
	if err := manager.store.Save(StoreKey, manager.position); err != nil {
		manager.logger.Warn().Err(err).Msg("persist overlay position")
	}
}

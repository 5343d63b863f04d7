package position

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdeck/internal/core/model"
	"focusdeck/internal/storage"
)

var overlay = model.OverlayConfig{WidgetSize: 240, EdgeGap: 12}

type failingStore struct{}

func (failingStore) Load(string, any) (bool, error) { return false, errors.New("disk gone") }
func (failingStore) Save(string, any) error         { return errors.New("disk gone") }

func TestManager_ResizeReclamp(t *testing.T) {
	manager := New(overlay, Size{Width: 1920, Height: 1080}, nil, zerolog.Nop())

	require.Equal(t, Point{X: 1668, Y: 828}, manager.SetPosition(1800, 1000))

	got := manager.OnViewportResize(375, 667)
	assert.Equal(t, Point{X: 123, Y: 415}, got)
}

func TestManager_ResizeFromUnclampedCorner(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(StoreKey, Point{X: 1800, Y: 1000}))

	manager := New(overlay, Size{Width: 1920, Height: 1080}, store, zerolog.Nop())
	got := manager.OnViewportResize(375, 667)

	assert.Equal(t, Point{X: 123, Y: 415}, got)

	var saved Point
	found, err := store.Load(StoreKey, &saved)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, got, saved)
}

func TestManager_TinyViewportFloorsAtEdgeGap(t *testing.T) {
	manager := New(overlay, Size{Width: 100, Height: 50}, nil, zerolog.Nop())

	assert.Equal(t, Point{X: 12, Y: 12}, manager.SetPosition(-500, 900))
	assert.Equal(t, Bounds{Min: 12, Max: 12}, manager.HorizontalBounds())
}

func TestManager_ClampProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	manager := New(overlay, Size{Width: 800, Height: 600}, nil, zerolog.Nop())

	for i := 0; i < 2000; i++ {
		width := rng.Intn(4000)
		height := rng.Intn(3000)
		manager.OnViewportResize(width, height)
		point := manager.SetPosition(rng.Intn(10000)-5000, rng.Intn(10000)-5000)

		maxX := width - overlay.WidgetSize - overlay.EdgeGap
		if maxX < overlay.EdgeGap {
			maxX = overlay.EdgeGap
		}
		maxY := height - overlay.WidgetSize - overlay.EdgeGap
		if maxY < overlay.EdgeGap {
			maxY = overlay.EdgeGap
		}
		require.GreaterOrEqual(t, point.X, overlay.EdgeGap)
		require.LessOrEqual(t, point.X, maxX)
		require.GreaterOrEqual(t, point.Y, overlay.EdgeGap)
		require.LessOrEqual(t, point.Y, maxY)
	}
}

func TestManager_DefaultsToBottomRight(t *testing.T) {
	manager := New(overlay, Size{Width: 1920, Height: 1080}, storage.NewMemoryStore(), zerolog.Nop())

	assert.Equal(t, Point{X: 1668, Y: 828}, manager.Position())
}

func TestManager_RestoresAndClampsStoredPosition(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(StoreKey, Point{X: 40, Y: 5000}))

	manager := New(overlay, Size{Width: 1920, Height: 1080}, store, zerolog.Nop())

	assert.Equal(t, Point{X: 40, Y: 828}, manager.Position())
}

func TestManager_StoreFailuresAreSwallowed(t *testing.T) {
	manager := New(overlay, Size{Width: 1920, Height: 1080}, failingStore{}, zerolog.Nop())

	assert.Equal(t, Point{X: 1668, Y: 828}, manager.Position())
	assert.Equal(t, Point{X: 500, Y: 400}, manager.SetPosition(500, 400))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(1, 5, 10))
	assert.Equal(t, 10, Clamp(99, 5, 10))
	assert.Equal(t, 7, Clamp(7, 5, 10))
	assert.Equal(t, Bounds{Min: 12, Max: 1668}, AxisBounds(1920, 240, 12))
}

package mirror

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engmirror "focusdeck/internal/mirror"
)

func TestWindow_PlayRequiresOpen(t *testing.T) {
	surface := New(test.NewTempApp(t))

	assert.ErrorIs(t, surface.Play(), errNotOpen)
	assert.ErrorIs(t, surface.EnterAlwaysOnTop(), errNotOpen)
	assert.True(t, surface.Paused())
}

func TestWindow_TransportEchoes(t *testing.T) {
	surface := New(test.NewTempApp(t))
	var events []engmirror.TransportEvent
	surface.OnTransport(func(event engmirror.TransportEvent) { events = append(events, event) })

	require.NoError(t, surface.Open())
	require.NoError(t, surface.Play())
	assert.False(t, surface.Paused())
	surface.Pause()
	assert.True(t, surface.Paused())

	surface.userToggle()
	assert.False(t, surface.Paused())
	surface.hostClosed()

	assert.Equal(t, []engmirror.TransportEvent{
		engmirror.TransportPlay,
		engmirror.TransportPause,
		engmirror.TransportPlay,
		engmirror.TransportClosed,
	}, events)

	surface.Close()
	assert.True(t, surface.Paused())
	assert.ErrorIs(t, surface.Play(), errNotOpen)
}

func TestWindow_RemovedHandlerGetsNothing(t *testing.T) {
	surface := New(test.NewTempApp(t))
	calls := 0
	surface.OnTransport(func(engmirror.TransportEvent) { calls++ })
	require.NoError(t, surface.Open())

	surface.OnTransport(nil)
	require.NoError(t, surface.Play())

	assert.Zero(t, calls)
}

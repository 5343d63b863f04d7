// Package tray owns the system tray menu and icon.
package tray

import (
	"fmt"

	"fyne.io/fyne/v2"

	"focusdeck/internal/core/model"
	"focusdeck/internal/core/timer"
)

// App is the slice of desktop.App the tray needs.
type App interface {
	SetSystemTrayMenu(menu *fyne.Menu)
	SetSystemTrayIcon(icon fyne.Resource)
}

// Callbacks defines tray action handlers. They run off the UI thread.
type Callbacks struct {
	OnShow         func()
	OnToggleTimer  func()
	OnReset        func()
	OnMode         func(model.Mode)
	OnToggleMirror func()
	OnToggleMusic  func()
	OnPreferences  func()
	OnQuit         func()
}

// Manager handles system tray state. Its methods must run on the UI thread.
type Manager struct {
	app        App
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	timerItem  *fyne.MenuItem
	modeItems  map[model.Mode]*fyne.MenuItem
	modeMenu   *fyne.MenuItem
	mirrorItem *fyne.MenuItem
	musicItem  *fyne.MenuItem
	state      timer.State
}

// New creates a tray manager with the provided callbacks.
func New(app App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
		modeItems: make(map[model.Mode]*fyne.MenuItem, len(model.Modes)),
	}

	manager.statusItem = fyne.NewMenuItem("Status: starting...", nil)
	manager.statusItem.Disabled = true
	manager.timerItem = fyne.NewMenuItem("Start", dispatch(callbacks.OnToggleTimer))

	children := make([]*fyne.MenuItem, 0, len(model.Modes))
	for _, mode := range model.Modes {
		mode := mode
		item := fyne.NewMenuItem(mode.Label(), func() {
			if callbacks.OnMode != nil {
				go callbacks.OnMode(mode)
			}
		})
		manager.modeItems[mode] = item
		children = append(children, item)
	}
	manager.modeMenu = fyne.NewMenuItem("Mode", nil)
	manager.modeMenu.ChildMenu = fyne.NewMenu("", children...)

	manager.mirrorItem = fyne.NewMenuItem("Show mirror", dispatch(callbacks.OnToggleMirror))
	manager.musicItem = fyne.NewMenuItem("Play music", dispatch(callbacks.OnToggleMusic))

	manager.refreshMenu()
	return manager
}

// SetTimer updates the status line, the start/pause item and the mode check.
func (manager *Manager) SetTimer(state timer.State) {
	if state == manager.state && manager.statusItem.Label != "Status: starting..." {
		return
	}
	manager.state = state
	manager.statusItem.Label = statusLabel(state)
	if state.Running {
		manager.timerItem.Label = "Pause"
	} else {
		manager.timerItem.Label = "Start"
	}
	for mode, item := range manager.modeItems {
		item.Checked = mode == state.Mode
	}
	manager.refreshMenu()
}

// SetMirrorActive relabels the mirror item.
func (manager *Manager) SetMirrorActive(active bool) {
	if active {
		manager.mirrorItem.Label = "Hide mirror"
	} else {
		manager.mirrorItem.Label = "Show mirror"
	}
	manager.refreshMenu()
}

// SetMusicPlaying relabels the music item.
func (manager *Manager) SetMusicPlaying(playing bool) {
	if playing {
		manager.musicItem.Label = "Pause music"
	} else {
		manager.musicItem.Label = "Play music"
	}
	manager.refreshMenu()
}

// SetIcon replaces the tray icon. It may be called from any goroutine.
func (manager *Manager) SetIcon(icon fyne.Resource) {
	fyne.Do(func() { manager.app.SetSystemTrayIcon(icon) })
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("Focusdeck",
		manager.statusItem,
		fyne.NewMenuItem("Open Focusdeck", dispatch(manager.callbacks.OnShow)),
		fyne.NewMenuItemSeparator(),
		manager.timerItem,
		fyne.NewMenuItem("Reset", dispatch(manager.callbacks.OnReset)),
		manager.modeMenu,
		fyne.NewMenuItemSeparator(),
		manager.mirrorItem,
		manager.musicItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", dispatch(manager.callbacks.OnPreferences)),
		fyne.NewMenuItem("Quit", dispatch(manager.callbacks.OnQuit)),
	))
}

// dispatch runs handler on its own goroutine; the engine it drives may be
// waiting for the UI thread.
func dispatch(handler func()) func() {
	return func() {
		if handler != nil {
			go handler()
		}
	}
}

func statusLabel(state timer.State) string {
	status := fmt.Sprintf("%s %s", state.Mode.Label(), state.Clock())
	switch state.Phase() {
	case timer.PhasePaused:
		status += " (paused)"
	case timer.PhaseCompleted:
		status += " (done)"
	}
	return fmt.Sprintf("Status: %s", status)
}

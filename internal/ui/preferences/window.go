// Package preferences is the settings window opened from the tray.
package preferences

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"focusdeck/internal/core/timer"
)

// Window handles the preferences UI.
type Window struct {
	window    fyne.Window
	settings  Settings
	onSave    func(Settings)
	focus     *widget.Entry
	short     *widget.Entry
	long      *widget.Entry
	source    *widget.Entry
	volume    *widget.Slider
	muted     *widget.Check
	login     *widget.Check
	idle      *widget.Entry
	errorText *widget.Label
}

// New creates a preferences window. onSave runs on the UI thread.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("Focusdeck Preferences")

	prefs := &Window{
		window:    window,
		settings:  settings,
		onSave:    onSave,
		focus:     widget.NewEntry(),
		short:     widget.NewEntry(),
		long:      widget.NewEntry(),
		source:    widget.NewEntry(),
		volume:    widget.NewSlider(0, 1),
		muted:     widget.NewCheck("Mute", nil),
		login:     widget.NewCheck("Launch at login", nil),
		idle:      widget.NewEntry(),
		errorText: widget.NewLabel(""),
	}
	prefs.volume.Step = 0.05
	prefs.source.SetPlaceHolder("/path/to/loop.ogg or https://...")
	prefs.errorText.Importance = widget.DangerImportance
	prefs.errorText.Hide()

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Focus"), prefs.focus, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Short break"), prefs.short, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break"), prefs.long, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Pause focus after idle"), prefs.idle, widget.NewLabel("min (0 = never)")),
		widget.NewLabelWithStyle("Music", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.source,
		widget.NewLabel("Volume"),
		prefs.volume,
		prefs.muted,
		widget.NewLabelWithStyle("System", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.login,
		prefs.errorText,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(440, 480))
	window.SetCloseIntercept(window.Hide)
	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.focus.SetText(strconv.Itoa(settings.FocusMinutes))
	prefs.short.SetText(strconv.Itoa(settings.ShortBreakMinutes))
	prefs.long.SetText(strconv.Itoa(settings.LongBreakMinutes))
	prefs.idle.SetText(strconv.Itoa(settings.IdlePauseMinutes))
	prefs.source.SetText(settings.MusicSource)
	prefs.volume.SetValue(settings.Volume)
	prefs.muted.SetChecked(settings.Muted)
	prefs.login.SetChecked(settings.LaunchAtLogin)
	prefs.errorText.Hide()
}

func (prefs *Window) handleSave() {
	settings, err := prefs.collect()
	if err != nil {
		prefs.errorText.SetText(err.Error())
		prefs.errorText.Show()
		return
	}
	prefs.errorText.Hide()
	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func (prefs *Window) collect() (Settings, error) {
	settings := prefs.settings
	fields := []struct {
		name  string
		entry *widget.Entry
		dst   *int
		min   int
	}{
		{"focus", prefs.focus, &settings.FocusMinutes, 1},
		{"short break", prefs.short, &settings.ShortBreakMinutes, 1},
		{"long break", prefs.long, &settings.LongBreakMinutes, 1},
		{"idle pause", prefs.idle, &settings.IdlePauseMinutes, 0},
	}
	for _, field := range fields {
		value, err := parseMinutes(field.entry.Text, field.min)
		if err != nil {
			return prefs.settings, fmt.Errorf("%s: %w", field.name, err)
		}
		*field.dst = value
	}
	settings.MusicSource = strings.TrimSpace(prefs.source.Text)
	settings.Volume = prefs.volume.Value
	settings.Muted = prefs.muted.Checked
	settings.LaunchAtLogin = prefs.login.Checked
	return settings, nil
}

func parseMinutes(value string, min int) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number of minutes", value)
	}
	if parsed < min || parsed > timer.MaxMinutes {
		return 0, fmt.Errorf("must be between %d and %d minutes", min, timer.MaxMinutes)
	}
	return parsed, nil
}

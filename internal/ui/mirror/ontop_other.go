//go:build !windows

package mirror

import "fyne.io/fyne/v2"

// keepOnTop is best effort: fyne has no portable always-on-top hint, so the
// window manager decides.
func keepOnTop(fyne.Window) error {
	return nil
}

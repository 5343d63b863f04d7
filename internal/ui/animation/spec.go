package animation

import "fyne.io/fyne/v2"

// FlashSpec is the sprite set of a completion flash. Rest is shown once the
// flash is over.
type FlashSpec struct {
	Lit  fyne.Resource
	Dim  fyne.Resource
	Rest fyne.Resource
}

// PulseSpec defines sprites used while a countdown runs.
type PulseSpec struct {
	Rest fyne.Resource
	Beat fyne.Resource
}

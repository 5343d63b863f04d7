package animation

import "time"

// DefaultConfig returns a three second flash and a slow running pulse.
func DefaultConfig() Config {
	return Config{
		FlashOn: Range{
			Min: 250 * time.Millisecond,
			Max: 250 * time.Millisecond,
		},
		FlashOff: Range{
			Min: 250 * time.Millisecond,
			Max: 250 * time.Millisecond,
		},
		FlashCount: 6,
		PulseInterval: Range{
			Min: 4 * time.Second,
			Max: 6 * time.Second,
		},
		PulseHold: Range{
			Min: 300 * time.Millisecond,
			Max: 450 * time.Millisecond,
		},
	}
}

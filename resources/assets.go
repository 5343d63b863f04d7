// Package resources builds the app's static assets: the tray and window
// icons and the completion chime.
package resources

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"fyne.io/fyne/v2"
)

const (
	ChimeName     = "chime.wav"
	chimeRate     = 22050
	chimeDuration = 0.9
)

var cache sync.Map

// Icon returns the application icon. The ring is drawn in the accent color
// when running is true.
func Icon(running bool) fyne.Resource {
	name := "icon-idle.svg"
	accent := "#9aa4b2"
	if running {
		name = "icon-running.svg"
		accent = "#e4572e"
	}
	return cached(name, func() []byte {
		return []byte(fmt.Sprintf(iconSVG, accent, accent))
	})
}

const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
<circle cx="32" cy="34" r="24" fill="#1f2430" stroke="%s" stroke-width="5"/>
<rect x="27" y="3" width="10" height="6" rx="2" fill="%s"/>
<path d="M32 34 L32 18" stroke="#ffffff" stroke-width="4" stroke-linecap="round"/>
<path d="M32 34 L42 40" stroke="#ffffff" stroke-width="3" stroke-linecap="round"/>
</svg>`

// Chime returns the completion cue as a 16-bit mono WAV.
func Chime() fyne.Resource {
	return cached(ChimeName, func() []byte {
		return encodeWAV(chimeSamples(), chimeRate)
	})
}

func cached(name string, build func() []byte) fyne.Resource {
	if resource, ok := cache.Load(name); ok {
		return resource.(fyne.Resource)
	}
	resource, _ := cache.LoadOrStore(name, fyne.NewStaticResource(name, build()))
	return resource.(fyne.Resource)
}

// chimeSamples renders two bell partials, the second entering a third of
// the way in, with an exponential decay.
func chimeSamples() []int16 {
	total := int(chimeRate * chimeDuration)
	samples := make([]int16, total)
	second := total / 3
	for i := range samples {
		t := float64(i) / chimeRate
		value := math.Sin(2*math.Pi*880*t) * math.Exp(-4*t)
		if i >= second {
			t2 := float64(i-second) / chimeRate
			value += math.Sin(2*math.Pi*1318.5*t2) * math.Exp(-5*t2)
		}
		samples[i] = int16(value * 0.45 * math.MaxInt16)
	}
	return samples
}

func encodeWAV(samples []int16, sampleRate uint32) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
		pcmFormat     = 1
	)
	dataSize := uint32(len(samples) * bitsPerSample / 8)
	header := struct {
		RiffID        [4]byte
		RiffSize      uint32
		WaveID        [4]byte
		FmtID         [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		DataID        [4]byte
		DataSize      uint32
	}{
		RiffID:        [4]byte{'R', 'I', 'F', 'F'},
		RiffSize:      36 + dataSize,
		WaveID:        [4]byte{'W', 'A', 'V', 'E'},
		FmtID:         [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   pcmFormat,
		NumChannels:   numChannels,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * numChannels * bitsPerSample / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		DataID:        [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}

	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	_ = binary.Write(&buf, binary.LittleEndian, &header)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// internal/dsp/bank.go
package dsp

import "math"

const (
	// floorScale and floorEpsilon shape the noise-normalization divisor:
	// power / (max(floorEpsilon, floor)*floorScale + floorEpsilon)
	floorScale   = 0.85
	floorEpsilon = 1e-12
)

// ToneBank runs one Goertzel filter per tracked frequency over the same
// window length and optionally normalizes each by a measured noise floor.
// Filters are addressed by their position in the frequency list.
type ToneBank struct {
	filters []*Goertzel
	floor   []float64
	active  bool
}

// NewToneBank builds a filter for each frequency. All filters share the
// sample rate and window length.
func NewToneBank(frequencies []float64, sampleRate float64, blockSize int) (*ToneBank, error) {
	b := &ToneBank{
		filters: make([]*Goertzel, len(frequencies)),
		floor:   make([]float64, len(frequencies)),
	}
	for i, f := range frequencies {
		g, err := NewGoertzel(GoertzelConfig{
			TargetFrequency: f,
			SampleRate:      sampleRate,
			BlockSize:       blockSize,
		})
		if err != nil {
			return nil, err
		}
		b.filters[i] = g
	}
	return b, nil
}

// Len returns the number of tracked frequencies.
func (b *ToneBank) Len() int {
	return len(b.filters)
}

// BlockSize returns the shared window length.
func (b *ToneBank) BlockSize() int {
	if len(b.filters) == 0 {
		return 0
	}
	return b.filters[0].BlockSize()
}

// RawPower returns the unnormalized power of frequency i over window.
// window must hold at least BlockSize samples.
func (b *ToneBank) RawPower(i int, window []float32) float64 {
	return b.filters[i].PowerNoAlloc(window)
}

// Power returns the power of frequency i over window, divided by the noise
// floor when a profile is active.
func (b *ToneBank) Power(i int, window []float32) float64 {
	p := b.filters[i].PowerNoAlloc(window)
	if !b.active {
		return p
	}
	return p / (math.Max(floorEpsilon, b.floor[i])*floorScale + floorEpsilon)
}

// SetNoiseFloor installs a per-frequency noise profile and activates it.
// floor must have one entry per tracked frequency.
func (b *ToneBank) SetNoiseFloor(floor []float64) {
	copy(b.floor, floor)
	b.active = true
}

// DisableNoiseFloor stops normalizing. The measured profile is kept.
func (b *ToneBank) DisableNoiseFloor() {
	b.active = false
}

// NoiseFloorActive reports whether powers are being normalized.
func (b *ToneBank) NoiseFloorActive() bool {
	return b.active
}

// NoiseFloor returns a copy of the stored profile.
func (b *ToneBank) NoiseFloor() []float64 {
	out := make([]float64, len(b.floor))
	copy(out, b.floor)
	return out
}

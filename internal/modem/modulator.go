// internal/modem/modulator.go
package modem

import (
	"math"

	"github.com/ColonelBlimp/tonecast/internal/dsp"
	"github.com/ColonelBlimp/tonecast/internal/protocol"
)

const (
	minOutputGain = 0.08
	maxOutputGain = 0.85
	volumeScale   = 120.0
)

// OutputGain converts a volume percentage to a peak amplitude.
func OutputGain(volume int) (float64, error) {
	if volume < 0 || volume > 100 {
		return 0, ErrInvalidVolume
	}
	return math.Min(maxOutputGain, math.Max(minOutputGain, float64(volume)/volumeScale)), nil
}

// Modulator synthesizes a continuous-phase sine that switches frequency at
// every symbol boundary. Each symbol is exactly SymbolSamples long so the
// receiver's symbol grid lines up at the same sample rate.
type Modulator struct {
	sampleRate float64
	symbol     int
	amplitude  float64
	phase      float64
}

// NewModulator creates a modulator for sampleRate with peak amplitude in (0, 1].
func NewModulator(sampleRate, amplitude float64) (*Modulator, error) {
	if sampleRate <= 0 {
		return nil, dsp.ErrInvalidSampleRate
	}
	if amplitude <= 0 || amplitude > 1 {
		return nil, ErrInvalidAmplitude
	}
	for _, f := range protocol.Frequencies() {
		if f >= sampleRate/2 {
			return nil, dsp.ErrInvalidFrequency
		}
	}
	return &Modulator{
		sampleRate: sampleRate,
		symbol:     protocol.SymbolSamples(sampleRate),
		amplitude:  amplitude,
	}, nil
}

// SymbolSamples returns the number of samples rendered per tone.
func (m *Modulator) SymbolSamples() int {
	return m.symbol
}

// AppendTone renders one symbol of t onto dst.
func (m *Modulator) AppendTone(dst []float32, t protocol.Tone) []float32 {
	step := 2 * math.Pi * t.Frequency() / m.sampleRate
	for i := 0; i < m.symbol; i++ {
		dst = append(dst, float32(m.amplitude*math.Sin(m.phase)))
		m.phase += step
	}
	m.phase = math.Mod(m.phase, 2*math.Pi)
	return dst
}

// Render renders a whole tone sequence.
func (m *Modulator) Render(tones []protocol.Tone) []float32 {
	out := make([]float32, 0, len(tones)*m.symbol)
	for _, t := range tones {
		out = m.AppendTone(out, t)
	}
	return out
}

// Reset restarts the oscillator at zero phase.
func (m *Modulator) Reset() {
	m.phase = 0
}

// internal/dsp/agc_test.go
package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.InDelta(t, 0.5, RMS([]float32{0.5, -0.5, 0.5, -0.5}), 1e-9)
	// full cycles of a sine have RMS A/sqrt(2)
	assert.InDelta(t, 1/math.Sqrt2, RMS(generateSineWave(1000, 48000, 480, 1)), 1e-3)
}

func TestNormalizer_SilencePassesThrough(t *testing.T) {
	n := NewNormalizer(DefaultAGCConfig())
	in := make([]float32, 256)

	out := n.Process(in)
	require.Len(t, out, len(in))
	assert.Same(t, &in[0], &out[0])
	assert.Equal(t, 1.0, n.Gain(), "silence must not move the gain")
}

func TestNormalizer_LoudSignalPassesThrough(t *testing.T) {
	n := NewNormalizer(DefaultAGCConfig())
	in := generateSineWave(1500, 48000, 1024, 0.5)

	for i := 0; i < 20; i++ {
		out := n.Process(in)
		assert.Same(t, &in[0], &out[0])
	}
	assert.InDelta(t, 1.0, n.Gain(), 1e-9)
}

func TestNormalizer_BoostsWeakSignal(t *testing.T) {
	n := NewNormalizer(DefaultAGCConfig())
	in := generateSineWave(1500, 48000, 1024, 0.01)
	rms := RMS(in)

	out := n.Process(in)

	desired := 0.085 / (rms + 1e-9)
	wantGain := 0.84 + 0.16*desired
	require.InDelta(t, wantGain, n.Gain(), 1e-9)
	require.Len(t, out, len(in))
	for i := range in {
		want := float32(math.Tanh(float64(in[i]) * wantGain * 1.6))
		assert.InDelta(t, want, out[i], 1e-6)
	}
	assert.Greater(t, RMS(out), rms)
}

func TestNormalizer_GainConvergesAndCaps(t *testing.T) {
	tests := []struct {
		name      string
		amplitude float32
		wantGain  float64
	}{
		{"moderate", 0.02, 0.085 / (0.02 / math.Sqrt2)},
		{"capped", 0.0001, 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(DefaultAGCConfig())
			in := generateSineWave(1500, 48000, 960, tt.amplitude)
			for i := 0; i < 200; i++ {
				n.Process(in)
			}
			assert.InEpsilon(t, tt.wantGain, n.Gain(), 0.01)

			n.Reset()
			assert.Equal(t, 1.0, n.Gain())
		})
	}
}

func TestNormalizer_CustomConfig(t *testing.T) {
	n := NewNormalizer(AGCConfig{TargetRMS: 0.2, MaxGain: 4})
	in := generateSineWave(1500, 48000, 960, 0.001)
	for i := 0; i < 200; i++ {
		n.Process(in)
	}
	assert.InEpsilon(t, 4.0, n.Gain(), 0.01)

	// invalid values fall back to defaults
	d := NewNormalizer(AGCConfig{})
	for i := 0; i < 200; i++ {
		d.Process(in)
	}
	assert.InEpsilon(t, DefaultMaxGain, d.Gain(), 0.01)
}

func TestNormalizer_OutputBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := NewNormalizer(DefaultAGCConfig())
		chunks := rapid.IntRange(1, 10).Draw(t, "chunks")
		for c := 0; c < chunks; c++ {
			in := rapid.SliceOfN(rapid.Float32Range(-1, 1), 1, 512).Draw(t, "chunk")
			out := n.Process(in)
			if len(out) != len(in) {
				t.Fatalf("length changed: %d -> %d", len(in), len(out))
			}
			for i, v := range out {
				if v < -1 || v > 1 || math.IsNaN(float64(v)) {
					t.Fatalf("sample %d out of range: %v", i, v)
				}
			}
			g := n.Gain()
			if g < 1-1e-9 || g > DefaultMaxGain+1e-9 {
				t.Fatalf("gain %v outside [1, %v]", g, DefaultMaxGain)
			}
		}
	})
}

func TestLevelMeter(t *testing.T) {
	var m LevelMeter
	assert.Equal(t, 0, m.Percent())

	chunk := []float32{0.1, -0.1, 0.1, -0.1}
	// 0.1 * 0.12 * 700 = 8.4
	assert.Equal(t, 8, m.Update(chunk))

	for i := 0; i < 200; i++ {
		m.Update(chunk)
	}
	assert.Equal(t, 70, m.Percent())

	loud := []float32{0.9, -0.9}
	for i := 0; i < 200; i++ {
		m.Update(loud)
	}
	assert.Equal(t, 100, m.Percent())

	m.Reset()
	assert.Equal(t, 0, m.Percent())
}

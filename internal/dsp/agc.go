// internal/dsp/agc.go
package dsp

import "math"

// AGC defaults
const (
	DefaultTargetRMS = 0.085
	DefaultMaxGain   = 28.0

	gainSmoothing = 0.84 // weight of the previous gain
	gainBypass    = 1.05 // at or below this gain chunks pass through untouched
	drive         = 1.6  // extra drive into the tanh limiter
	rmsEpsilon    = 1e-9
)

// AGCConfig holds the normalizer settings.
type AGCConfig struct {
	// TargetRMS is the RMS level weak input is boosted toward (from config: agc_target_rms)
	TargetRMS float64
	// MaxGain caps the boost (from config: agc_max_gain)
	MaxGain float64
}

// DefaultAGCConfig returns the standard normalizer settings.
func DefaultAGCConfig() AGCConfig {
	return AGCConfig{TargetRMS: DefaultTargetRMS, MaxGain: DefaultMaxGain}
}

// Normalizer is a chunk-based automatic gain control. It only ever boosts:
// loud input passes through, weak input is amplified and soft-limited with
// tanh so it cannot clip.
type Normalizer struct {
	config AGCConfig
	gain   float64
}

// NewNormalizer creates a normalizer with unity starting gain. Non-positive
// config values fall back to the defaults.
func NewNormalizer(cfg AGCConfig) *Normalizer {
	if cfg.TargetRMS <= 0 {
		cfg.TargetRMS = DefaultTargetRMS
	}
	if cfg.MaxGain < 1 {
		cfg.MaxGain = DefaultMaxGain
	}
	return &Normalizer{config: cfg, gain: 1}
}

// Process returns the normalized chunk. When the chunk passes through the
// input slice itself is returned; otherwise a new slice is allocated.
func (n *Normalizer) Process(chunk []float32) []float32 {
	rms := RMS(chunk)
	if rms == 0 {
		return chunk
	}

	desired := clamp(n.config.TargetRMS/(rms+rmsEpsilon), 1, n.config.MaxGain)
	n.gain = n.gain*gainSmoothing + desired*(1-gainSmoothing)
	if n.gain <= gainBypass {
		return chunk
	}

	k := n.gain * drive
	out := make([]float32, len(chunk))
	for i, x := range chunk {
		out[i] = float32(math.Tanh(float64(x) * k))
	}
	return out
}

// Gain returns the current smoothed gain.
func (n *Normalizer) Gain() float64 {
	return n.gain
}

// Reset returns the gain to unity.
func (n *Normalizer) Reset() {
	n.gain = 1
}

// RMS returns the root mean square of samples, 0 for an empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, x := range samples {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

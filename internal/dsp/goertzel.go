// internal/dsp/goertzel.go
package dsp

import (
	"errors"
	"math"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
	// ErrInsufficientSamples indicates not enough samples for the configured block size
	ErrInsufficientSamples = errors.New("insufficient samples for block size")
)

// GoertzelConfig holds configuration for a single-frequency detector.
type GoertzelConfig struct {
	// TargetFrequency is the frequency to detect in Hz
	TargetFrequency float64
	// SampleRate is the audio sample rate in Hz (from config: sample_rate)
	SampleRate float64
	// BlockSize is the number of samples per detection window, one symbol
	BlockSize int
}

// Goertzel computes the power of one frequency bin over a fixed window.
// It is cheaper than an FFT when only a handful of frequencies are tracked,
// which is the case for an FSK receiver.
type Goertzel struct {
	config      GoertzelConfig
	coefficient float64 // 2 * cos(2π * f / fs)
}

// NewGoertzel creates a new Goertzel detector with the given configuration.
// Returns an error if the configuration is invalid.
func NewGoertzel(cfg GoertzelConfig) (*Goertzel, error) {
	if cfg.BlockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	nyquist := cfg.SampleRate / 2.0
	if cfg.TargetFrequency <= 0 || cfg.TargetFrequency >= nyquist {
		return nil, ErrInvalidFrequency
	}

	omega := 2.0 * math.Pi * cfg.TargetFrequency / cfg.SampleRate

	return &Goertzel{
		config:      cfg,
		coefficient: 2.0 * math.Cos(omega),
	}, nil
}

// Power returns the raw (unnormalized) power at the target frequency over
// the first BlockSize samples. The value scales with the square of the
// amplitude and with the square of the block size.
func (g *Goertzel) Power(samples []float32) (float64, error) {
	if len(samples) < g.config.BlockSize {
		return 0, ErrInsufficientSamples
	}

	return g.computePower(samples), nil
}

// PowerNoAlloc computes power without bounds checking for hot path usage.
// Caller MUST ensure samples has at least BlockSize elements.
func (g *Goertzel) PowerNoAlloc(samples []float32) float64 {
	return g.computePower(samples)
}

// Magnitude returns the amplitude estimate of the target frequency. A pure
// sine of amplitude A at the target frequency returns approximately A.
func (g *Goertzel) Magnitude(samples []float32) (float64, error) {
	p, err := g.Power(samples)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(p) * 2.0 / float64(g.config.BlockSize), nil
}

func (g *Goertzel) computePower(samples []float32) float64 {
	var s0, s1, s2 float64
	coeff := g.coefficient

	for _, x := range samples[:g.config.BlockSize] {
		s0 = float64(x) + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	// power = s1² + s2² - coefficient * s1 * s2
	power := s1*s1 + s2*s2 - coeff*s1*s2

	// Guard against floating point errors causing negative values
	if power < 0 {
		power = 0
	}
	return power
}

// Config returns the current configuration (for testing and inspection)
func (g *Goertzel) Config() GoertzelConfig {
	return g.config
}

// Coefficient returns the pre-computed Goertzel coefficient (for testing)
func (g *Goertzel) Coefficient() float64 {
	return g.coefficient
}

// BlockSize returns the configured block size
func (g *Goertzel) BlockSize() int {
	return g.config.BlockSize
}

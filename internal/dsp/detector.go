// internal/dsp/detector.go
package dsp

import "errors"

var (
	// ErrBankRequired indicates a tone bank instance is required
	ErrBankRequired = errors.New("tone bank instance is required")
	// ErrInvalidConfidence indicates the confidence ratio must be at least 1
	ErrInvalidConfidence = errors.New("confidence ratio must be >= 1.0")
	// ErrInvalidMargin indicates the dominance margin must be at least 1
	ErrInvalidMargin = errors.New("dominance margin must be >= 1.0")
	// ErrInvalidSNR indicates the minimum SNR must be non-negative
	ErrInvalidSNR = errors.New("minimum snr must be non-negative")
	// ErrInvalidCandidate indicates a candidate index outside the bank
	ErrInvalidCandidate = errors.New("candidate index out of range")
)

const (
	// DefaultConfidence is the minimum best/second power ratio for a symbol
	DefaultConfidence = 1.008
	// DefaultMargin is how far a tone must exceed its rivals to dominate them
	DefaultMargin = 1.1

	confidenceEpsilon = 1e-9
	contrastEpsilon   = 1e-12
)

// DetectorConfig holds configuration for the symbol detector.
type DetectorConfig struct {
	// Candidates are the bank indices a symbol is classified among
	Candidates []int
	// Confidence is the minimum best/second power ratio; below it a symbol is rejected
	Confidence float64
	// Margin is the factor a tone must exceed every rival by to dominate
	Margin float64
	// MinSNR is the noise-normalized power a dominating tone also needs while a
	// noise profile is active. 0 disables the check (from config: lock_min_snr)
	MinSNR float64
}

// Detector makes per-window tone decisions on top of a ToneBank: picking the
// strongest of a candidate set with a confidence check, and testing whether
// one tone dominates others.
type Detector struct {
	config DetectorConfig
	bank   *ToneBank
}

// NewDetector creates a new symbol detector with the given configuration.
func NewDetector(cfg DetectorConfig, bank *ToneBank) (*Detector, error) {
	if bank == nil {
		return nil, ErrBankRequired
	}
	if cfg.Confidence < 1 {
		return nil, ErrInvalidConfidence
	}
	if cfg.Margin < 1 {
		return nil, ErrInvalidMargin
	}
	if cfg.MinSNR < 0 {
		return nil, ErrInvalidSNR
	}
	if len(cfg.Candidates) < 2 {
		return nil, ErrInvalidCandidate
	}
	for _, c := range cfg.Candidates {
		if c < 0 || c >= bank.Len() {
			return nil, ErrInvalidCandidate
		}
	}

	cfg.Candidates = append([]int(nil), cfg.Candidates...)
	return &Detector{config: cfg, bank: bank}, nil
}

// Classify returns the position within Candidates of the strongest tone in
// window. ok is false when the best tone does not beat the runner-up by the
// confidence ratio.
func (d *Detector) Classify(window []float32) (best int, ok bool) {
	bestPower := -1.0
	secondPower := -1.0
	for i, c := range d.config.Candidates {
		p := d.bank.Power(c, window)
		if p > bestPower {
			secondPower = bestPower
			bestPower = p
			best = i
		} else if p > secondPower {
			secondPower = p
		}
	}

	if bestPower/(secondPower+confidenceEpsilon) < d.config.Confidence {
		return 0, false
	}
	return best, true
}

// Dominates reports whether tone want exceeds every rival by the margin in
// window. While a noise profile is active and MinSNR is set, want must also
// reach MinSNR.
func (d *Detector) Dominates(window []float32, want int, rivals ...int) bool {
	p := d.bank.Power(want, window)
	if d.config.MinSNR > 0 && d.bank.NoiseFloorActive() && p < d.config.MinSNR {
		return false
	}
	for _, r := range rivals {
		if p <= d.bank.Power(r, window)*d.config.Margin {
			return false
		}
	}
	return true
}

// Contrast returns p(want) / (p(want) + max p(rival)), a 0..1 measure of
// how cleanly want stands out in window.
func (d *Detector) Contrast(window []float32, want int, rivals ...int) float64 {
	p := d.bank.Power(want, window)
	var worst float64
	for _, r := range rivals {
		worst = max(worst, d.bank.Power(r, window))
	}
	return p / (p + worst + contrastEpsilon)
}

// Bank returns the underlying tone bank.
func (d *Detector) Bank() *ToneBank {
	return d.bank
}

// Config returns the current configuration
func (d *Detector) Config() DetectorConfig {
	return d.config
}

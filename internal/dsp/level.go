// internal/dsp/level.go
package dsp

import "math"

const (
	levelSmoothing = 0.88
	levelScale     = 700.0
)

// LevelMeter tracks a smoothed input level for display and weak-signal checks.
type LevelMeter struct {
	level float64
}

// Update folds a chunk into the meter and returns the level in percent.
func (m *LevelMeter) Update(chunk []float32) int {
	m.level = m.level*levelSmoothing + RMS(chunk)*(1-levelSmoothing)
	return m.Percent()
}

// Percent returns the current level scaled to 0..100.
func (m *LevelMeter) Percent() int {
	return int(math.Min(100, math.Round(m.level*levelScale)))
}

// Reset clears the meter.
func (m *LevelMeter) Reset() {
	m.level = 0
}

// internal/dsp/noise.go
package dsp

import (
	"errors"
	"fmt"
)

// MinCalibrationWindows is the fewest whole windows a calibration block must hold.
const MinCalibrationWindows = 4

// ErrCalibrationTooShort indicates the calibration block held too few windows
var ErrCalibrationTooShort = errors.New("calibration block too short")

// MeasureNoiseFloor splits samples into non-overlapping BlockSize windows and
// returns the average raw power of every tracked frequency. Trailing samples
// that do not fill a window are ignored.
func MeasureNoiseFloor(b *ToneBank, samples []float32) ([]float64, error) {
	n := b.BlockSize()
	windows := 0
	if n > 0 {
		windows = len(samples) / n
	}
	if windows < MinCalibrationWindows {
		return nil, fmt.Errorf("%w: %d windows, need %d", ErrCalibrationTooShort, windows, MinCalibrationWindows)
	}

	floor := make([]float64, b.Len())
	for w := 0; w < windows; w++ {
		window := samples[w*n : (w+1)*n]
		for i := range floor {
			floor[i] += b.RawPower(i, window)
		}
	}
	for i := range floor {
		floor[i] /= float64(windows)
	}
	return floor, nil
}

// Calibrate measures the noise floor from samples and activates it on the
// bank. On failure the bank is left uncalibrated.
func (b *ToneBank) Calibrate(samples []float32) error {
	floor, err := MeasureNoiseFloor(b, samples)
	if err != nil {
		return err
	}
	b.SetNoiseFloor(floor)
	return nil
}

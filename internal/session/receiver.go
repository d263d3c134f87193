// internal/session/receiver.go
package session

import (
	"context"
	"math"
	"time"

	"github.com/ColonelBlimp/tonecast/internal/dsp"
	"github.com/ColonelBlimp/tonecast/internal/modem"
)

// Receiver defaults
const (
	DefaultCalibration     = 2 * time.Second
	DefaultLockFallback    = 6 * time.Second
	DefaultWeakSignalAfter = 2500 * time.Millisecond
	DefaultWeakSignalLevel = 3
)

// ReceiverConfig holds the receive session settings.
type ReceiverConfig struct {
	// SampleRate of the input in Hz (from config: sample_rate)
	SampleRate float64
	// Calibration is how much leading audio is used to measure the noise
	// profile. 0 skips calibration (from config: calibration_seconds)
	Calibration time.Duration
	// LockFallback is how long to wait for lock before the noise profile is
	// dropped (from config: lock_fallback_seconds)
	LockFallback time.Duration
	// WeakSignalAfter is how long without lock before a low level is reported
	// (from config: weak_signal_seconds)
	WeakSignalAfter time.Duration
	// WeakSignalLevel is the input level percentage below which the signal
	// counts as weak (from config: weak_signal_level)
	WeakSignalLevel int
	// LockMinSNR is passed to the decoder (from config: lock_min_snr)
	LockMinSNR float64
	// AGCEnabled turns the input normalizer on (from config: agc_enabled)
	AGCEnabled bool
	// AGC holds the normalizer settings (from config: agc_target_rms, agc_max_gain)
	AGC dsp.AGCConfig
}

// DefaultReceiverConfig returns the standard settings for sampleRate.
func DefaultReceiverConfig(sampleRate float64) ReceiverConfig {
	return ReceiverConfig{
		SampleRate:      sampleRate,
		Calibration:     DefaultCalibration,
		LockFallback:    DefaultLockFallback,
		WeakSignalAfter: DefaultWeakSignalAfter,
		WeakSignalLevel: DefaultWeakSignalLevel,
		AGCEnabled:      true,
		AGC:             dsp.DefaultAGCConfig(),
	}
}

// Receiver drives one decoder for one capture session: noise calibration on
// the leading audio, input normalization, and the no-lock fallbacks.
// It is not safe for concurrent use; Run gives it a single driving goroutine.
type Receiver struct {
	config   ReceiverConfig
	decoder  *modem.Decoder
	observer modem.Observer
	agc      *dsp.Normalizer
	level    dsp.LevelMeter

	calibration []float32
	calibTarget int
	calibrating bool

	noLock       time.Duration
	weakWarned   bool
	fallbackDone bool
}

// NewReceiver creates a receive session reporting to obs.
func NewReceiver(cfg ReceiverConfig, obs modem.Observer) (*Receiver, error) {
	if obs == nil {
		obs = modem.NopObserver{}
	}
	dec, err := modem.NewDecoder(modem.Config{
		SampleRate: cfg.SampleRate,
		LockMinSNR: cfg.LockMinSNR,
	}, obs)
	if err != nil {
		return nil, err
	}

	r := &Receiver{
		config:   cfg,
		decoder:  dec,
		observer: obs,
	}
	if cfg.AGCEnabled {
		r.agc = dsp.NewNormalizer(cfg.AGC)
	}
	if cfg.Calibration > 0 {
		r.calibTarget = max(1, int(math.Round(cfg.SampleRate*cfg.Calibration.Seconds())))
		r.calibration = make([]float32, 0, r.calibTarget)
		r.calibrating = true
	}
	return r, nil
}

// Push ingests one chunk of mono audio.
func (r *Receiver) Push(chunk []float32) {
	r.level.Update(chunk)

	if r.calibrating {
		take := min(r.calibTarget-len(r.calibration), len(chunk))
		r.calibration = append(r.calibration, chunk[:take]...)
		if len(r.calibration) < r.calibTarget {
			return
		}
		r.finishCalibration()
		// the rest of the chunk skips normalization
		if take < len(chunk) {
			r.decoder.Feed(chunk[take:])
		}
		return
	}

	in := chunk
	if r.agc != nil {
		in = r.agc.Process(chunk)
	}
	r.decoder.Feed(in)
	r.trackLock(len(chunk))
}

func (r *Receiver) finishCalibration() {
	r.calibrating = false
	err := r.decoder.Calibrate(r.calibration)
	r.calibration = nil
	if err != nil {
		r.observer.OnStatus(modem.Status{Kind: modem.StatusCalibrationTooShort, Err: err})
		return
	}
	r.observer.OnStatus(modem.Status{Kind: modem.StatusCalibrated})
}

func (r *Receiver) trackLock(n int) {
	if r.decoder.Locked() {
		r.noLock = 0
		r.weakWarned = false
		return
	}

	r.noLock += time.Duration(float64(n) / r.config.SampleRate * float64(time.Second))
	if !r.weakWarned && r.noLock >= r.config.WeakSignalAfter && r.level.Percent() < r.config.WeakSignalLevel {
		r.weakWarned = true
		r.observer.OnStatus(modem.Status{Kind: modem.StatusWeakSignal, Err: ErrWeakSignal})
	}
	if !r.fallbackDone && r.decoder.NoiseReady() && r.noLock >= r.config.LockFallback {
		r.fallbackDone = true
		r.decoder.DisableNoiseProfile()
		r.observer.OnStatus(modem.Status{Kind: modem.StatusNoiseProfileDisabled})
	}
}

// Run pushes every chunk from samples until the channel closes or ctx is done.
func (r *Receiver) Run(ctx context.Context, samples <-chan []float32) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-samples:
			if !ok {
				return nil
			}
			r.Push(chunk)
		}
	}
}

// Calibrating reports whether the session is still collecting noise.
func (r *Receiver) Calibrating() bool {
	return r.calibrating
}

// CalibrationProgress returns calibration completion in percent.
func (r *Receiver) CalibrationProgress() int {
	if !r.calibrating {
		return 100
	}
	return min(100, int(math.Round(float64(len(r.calibration))/float64(r.calibTarget)*100)))
}

// Level returns the smoothed raw input level in percent.
func (r *Receiver) Level() int {
	return r.level.Percent()
}

// Decoder returns the underlying decoder.
func (r *Receiver) Decoder() *modem.Decoder {
	return r.decoder
}

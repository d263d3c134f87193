// internal/session/transmitter.go
package session

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/ColonelBlimp/tonecast/internal/dsp"
	"github.com/ColonelBlimp/tonecast/internal/modem"
)

const (
	// DefaultLeadIn is the silence rendered ahead of the tones.
	DefaultLeadIn = 250 * time.Millisecond
	// DefaultTail is the silence rendered after the last tone so output
	// buffering cannot clip the final symbols.
	DefaultTail = 100 * time.Millisecond
)

// Player plays mono float32 samples and returns once they have been
// played or ctx is done.
type Player interface {
	Play(ctx context.Context, samples []float32) error
}

// Transmitter renders frames and hands them to a Player, one at a time.
type Transmitter struct {
	player     Player
	sampleRate float64
	leadIn     time.Duration
	busy       atomic.Bool
}

// NewTransmitter creates a transmitter rendering at sampleRate.
func NewTransmitter(p Player, sampleRate float64, leadIn time.Duration) (*Transmitter, error) {
	if p == nil {
		return nil, ErrPlayerRequired
	}
	if sampleRate <= 0 {
		return nil, dsp.ErrInvalidSampleRate
	}
	return &Transmitter{player: p, sampleRate: sampleRate, leadIn: max(0, leadIn)}, nil
}

// Emit encodes payload as a width x height frame and plays it at volume
// percent. Only one emission runs at a time; a concurrent call fails with
// ErrEmissionInProgress.
func (t *Transmitter) Emit(ctx context.Context, payload []byte, width, height, volume int) (*modem.Transmission, error) {
	if !t.busy.CompareAndSwap(false, true) {
		return nil, ErrEmissionInProgress
	}
	defer t.busy.Store(false)

	gain, err := modem.OutputGain(volume)
	if err != nil {
		return nil, err
	}
	tx, err := modem.Encode(payload, width, height)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	tones, err := tx.Samples(t.sampleRate, gain)
	if err != nil {
		return nil, fmt.Errorf("render tones: %w", err)
	}

	lead := int(math.Round(t.leadIn.Seconds() * t.sampleRate))
	tail := int(math.Round(DefaultTail.Seconds() * t.sampleRate))
	samples := make([]float32, lead, lead+len(tones)+tail)
	samples = append(samples, tones...)
	samples = append(samples, make([]float32, tail)...)

	if err := t.player.Play(ctx, samples); err != nil {
		return tx, fmt.Errorf("play: %w", err)
	}
	return tx, nil
}

// Busy reports whether an emission is in flight.
func (t *Transmitter) Busy() bool {
	return t.busy.Load()
}

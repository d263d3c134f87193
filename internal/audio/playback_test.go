package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestNewPlayback_ForcesMono(t *testing.T) {
	p := NewPlayback(Config{DeviceIndex: -1, SampleRate: 44100, Channels: 2, BufferSize: 256})
	if p.config.Channels != 1 {
		t.Errorf("playback channels = %d, want 1", p.config.Channels)
	}
}

func TestPlayback_NotInitialized(t *testing.T) {
	p := NewPlayback(DefaultConfig())
	if err := p.Play(context.Background(), []float32{0}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Play() error = %v, want ErrNotInitialized", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() on uninitialized playback error = %v", err)
	}
}

func TestSampleCursor_Fill(t *testing.T) {
	c := newSampleCursor([]float32{0.25, -0.5, 1})
	out := make([]byte, 2*4)

	c.fill(out)
	if got := math.Float32frombits(binary.LittleEndian.Uint32(out[4:])); got != -0.5 {
		t.Errorf("second frame = %f, want -0.5", got)
	}
	select {
	case <-c.done:
		t.Fatal("done before all samples were handed over")
	default:
	}

	c.fill(out)
	if got := math.Float32frombits(binary.LittleEndian.Uint32(out[:4])); got != 1 {
		t.Errorf("third frame = %f, want 1", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(out[4:])); got != 0 {
		t.Errorf("padding = %f, want silence", got)
	}

	// the device still holds the last period: wait out drainPeriods of silence
	for i := 0; i < drainPeriods; i++ {
		select {
		case <-c.done:
			t.Fatalf("done after %d silent periods, want %d", i, drainPeriods)
		default:
		}
		c.fill(out)
		for f := 0; f < 2; f++ {
			if got := math.Float32frombits(binary.LittleEndian.Uint32(out[f*4:])); got != 0 {
				t.Errorf("drain period %d frame %d = %f, want silence", i, f, got)
			}
		}
	}
	select {
	case <-c.done:
	default:
		t.Fatal("done not signalled")
	}

	// further callbacks keep padding silence
	c.fill(out)
}

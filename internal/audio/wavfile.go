// internal/audio/wavfile.go
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
)

// ErrInvalidWAV indicates the file is not a readable PCM WAV file
var ErrInvalidWAV = errors.New("invalid wav file")

// ReadWAV loads a PCM WAV file as mono float32 samples in -1.0..1.0.
// Multichannel files are mixed down.
func ReadWAV(path string) ([]float32, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if dec.WavAudioFormat != wavPCM {
		return nil, 0, fmt.Errorf("%w: audio format %d is not integer PCM", ErrInvalidWAV, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}

	depth := int(dec.BitDepth)
	if depth < 8 || depth > 32 {
		return nil, 0, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, depth)
	}
	scale := float32(math.Exp2(float64(depth - 1)))
	// 8-bit PCM is unsigned
	offset := 0
	if depth == 8 {
		offset = 128
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v-offset) / scale
	}
	return downmix(samples, int(dec.NumChans)), float64(dec.SampleRate), nil
}

// WriteWAV stores mono samples as a 16-bit PCM WAV file. Samples are clipped
// to -1.0..1.0.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, 1, wavPCM)
	data := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * math.MaxInt16))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}

// WAVPlayer plays into a WAV file instead of a device
type WAVPlayer struct {
	Path       string
	SampleRate int
}

// Play writes samples to the file.
func (w WAVPlayer) Play(ctx context.Context, samples []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteWAV(w.Path, samples, w.SampleRate)
}

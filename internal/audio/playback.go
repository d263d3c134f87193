// internal/audio/playback.go
package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// Playback renders mono float32 samples on an output device
type Playback struct {
	config Config
	ctx    *malgo.AllocatedContext
	mu     sync.Mutex
}

// NewPlayback creates a playback instance. Channels is ignored; output is mono.
func NewPlayback(cfg Config) *Playback {
	cfg.Channels = 1
	return &Playback{config: cfg}
}

// Init initializes the audio backend
func (p *Playback) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, err := initContext()
	if err != nil {
		return err
	}
	p.ctx = ctx
	return nil
}

// Close releases the audio backend
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return nil
	}
	err := freeContext(p.ctx)
	p.ctx = nil
	return err
}

// drainPeriods is how many all-silent periods follow the last sample before
// playback is considered finished. The device may still hold the final
// period in its own buffer when the callback hands it over.
const drainPeriods = 2

// sampleCursor feeds a fixed sample slice to the device callback and
// signals done once every sample and drainPeriods of silence have been
// handed over.
type sampleCursor struct {
	mu      sync.Mutex
	samples []float32
	pos     int
	drained int
	done    chan struct{}
	once    sync.Once
}

func newSampleCursor(samples []float32) *sampleCursor {
	return &sampleCursor{samples: samples, done: make(chan struct{})}
}

// fill writes the next frames into out as little-endian float32 and pads
// with silence past the end.
func (s *sampleCursor) fill(out []byte) {
	dst := bytesAsFloat32(out)

	s.mu.Lock()
	n := copy(dst, s.samples[s.pos:])
	s.pos += n
	if n == 0 {
		s.drained++
	}
	finished := s.drained >= drainPeriods
	s.mu.Unlock()

	clear(dst[n:])
	if finished {
		s.once.Do(func() { close(s.done) })
	}
}

// Play blocks until samples have been handed to the device and drained, or
// ctx is done.
func (p *Playback) Play(ctx context.Context, samples []float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = p.config.SampleRate
	deviceConfig.PeriodSizeInFrames = p.config.BufferSize
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1

	if p.config.DeviceIndex >= 0 {
		devices, err := listDevices(p.ctx, malgo.Playback)
		if err != nil {
			return err
		}
		id, err := deviceID(devices, p.config.DeviceIndex)
		if err != nil {
			return err
		}
		deviceConfig.Playback.DeviceID = id.Pointer()
	}

	cursor := newSampleCursor(samples)
	onSendFrames := func(outputSamples, _ []byte, _ uint32) {
		cursor.fill(outputSamples)
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSendFrames})
	if err != nil {
		return fmt.Errorf("init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}

	select {
	case <-cursor.done:
	case <-ctx.Done():
	}
	_ = device.Stop()
	return ctx.Err()
}

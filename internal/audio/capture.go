// internal/audio/capture.go
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ColonelBlimp/tonecast/internal/recovery"
	"github.com/gen2brain/malgo"
)

var (
	ErrNotInitialized = errors.New("audio device not initialized")
	ErrAlreadyRunning = errors.New("audio device already running")
	ErrNotRunning     = errors.New("audio device not running")
	ErrDeviceIndex    = errors.New("device index out of range")
)

// Config holds audio device configuration
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // e.g., 48000
	Channels    uint32 // capture channels, mixed down to mono
	BufferSize  uint32 // frames per callback
}

// DefaultConfig returns the defaults for acoustic frame reception
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  48000,
		Channels:    1,
		BufferSize:  1024,
	}
}

// Capture handles real-time audio sampling from an input device
type Capture struct {
	config    Config
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
	running   atomic.Bool
	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once

	// Output channel for mono audio chunks (float32 normalized -1.0 to 1.0)
	Samples chan []float32
}

// New creates a new audio capture instance
func New(cfg Config) *Capture {
	return &Capture{
		config:  cfg,
		Samples: make(chan []float32, 64),
	}
}

// Init initializes the audio backend
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := initContext()
	if err != nil {
		return err
	}
	c.ctx = ctx
	return nil
}

// ListDevices returns available capture devices
func (c *Capture) ListDevices() ([]malgo.DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listDevicesLocked()
}

func (c *Capture) listDevicesLocked() ([]malgo.DeviceInfo, error) {
	if c.ctx == nil {
		return nil, ErrNotInitialized
	}
	return listDevices(c.ctx, malgo.Capture)
}

// Start begins audio capture. Capture stops when ctx is cancelled.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		return ErrAlreadyRunning
	}
	if c.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.SampleRate = c.config.SampleRate
	deviceConfig.PeriodSizeInFrames = c.config.BufferSize
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = c.config.Channels

	if c.config.DeviceIndex >= 0 {
		devices, err := c.listDevicesLocked()
		if err != nil {
			return err
		}
		id, err := deviceID(devices, c.config.DeviceIndex)
		if err != nil {
			return err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: c.onRecvFrames})
	if err != nil {
		return fmt.Errorf("init capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start capture device: %w", err)
	}

	c.device = device
	c.running.Store(true)

	go func() {
		defer recovery.HandlePanicFunc(func() {
			c.closed.Store(true)
		})
		<-ctx.Done()
		_ = c.Stop()
	}()

	return nil
}

// onRecvFrames runs on the audio thread. It converts one period to mono and
// hands it to Samples.
func (c *Capture) onRecvFrames(_, inputSamples []byte, _ uint32) {
	if len(inputSamples) == 0 {
		return
	}

	// malgo reuses the input buffer, both paths copy
	var samples []float32
	if channels := int(max(1, c.config.Channels)); channels == 1 {
		samples = bytesToFloat32(inputSamples)
	} else {
		samples = downmix(bytesAsFloat32(inputSamples), channels)
	}

	if !c.closed.Load() {
		c.safeSend(samples)
	}
}

// safeSend does a non-blocking send and drops the chunk if the consumer is
// behind. A send racing Close is recovered.
func (c *Capture) safeSend(samples []float32) {
	defer func() {
		_ = recover()
	}()
	select {
	case c.Samples <- samples:
	default:
	}
}

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running.Load() {
		return ErrNotRunning
	}
	c.stopDevice()
	return nil
}

// Close releases all audio resources and closes Samples
func (c *Capture) Close() error {
	c.closed.Store(true)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopDevice()

	var err error
	if c.ctx != nil {
		err = freeContext(c.ctx)
		c.ctx = nil
	}

	c.closeOnce.Do(func() {
		close(c.Samples)
	})
	return err
}

func (c *Capture) stopDevice() {
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	c.running.Store(false)
}

// IsRunning returns true if capture is active
func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

// downmix averages interleaved frames into a new mono slice.
func downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return copyFloat32Slice(samples)
	}
	frames := len(samples) / channels
	out := make([]float32, frames)
	for i := range out {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += samples[i*channels+ch]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// bytesToFloat32 converts raw little-endian bytes to a new float32 slice
func bytesToFloat32(data []byte) []float32 {
	numSamples := len(data) / 4
	samples := make([]float32, numSamples)

	for i := 0; i < numSamples; i++ {
		offset := i * 4
		bits := uint32(data[offset]) |
			uint32(data[offset+1])<<8 |
			uint32(data[offset+2])<<16 |
			uint32(data[offset+3])<<24
		samples[i] = float32frombits(bits)
	}

	return samples
}

// bytesAsFloat32 reinterprets data as float32 samples without copying.
// The result aliases data.
func bytesAsFloat32(data []byte) []float32 {
	n := len(data) / 4
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), n)
}

func copyFloat32Slice(s []float32) []float32 {
	if s == nil {
		return nil
	}
	out := make([]float32, len(s))
	copy(out, s)
	return out
}

// float32frombits converts IEEE 754 binary representation to float32
func float32frombits(b uint32) float32 {
	return *(*float32)(unsafe.Pointer(&b))
}

package audio

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("DefaultConfig().Channels = %d, want 1", cfg.Channels)
	}
	if cfg.BufferSize != 1024 {
		t.Errorf("DefaultConfig().BufferSize = %d, want 1024", cfg.BufferSize)
	}
}

func TestNew(t *testing.T) {
	capture := New(Config{DeviceIndex: 2, SampleRate: 44100, Channels: 2, BufferSize: 512})

	if capture.config.DeviceIndex != 2 {
		t.Errorf("capture.config.DeviceIndex = %d, want 2", capture.config.DeviceIndex)
	}
	if capture.config.SampleRate != 44100 {
		t.Errorf("capture.config.SampleRate = %d, want 44100", capture.config.SampleRate)
	}
	if cap(capture.Samples) != 64 {
		t.Errorf("capture.Samples capacity = %d, want 64", cap(capture.Samples))
	}
	if capture.IsRunning() {
		t.Error("IsRunning() = true for new capture, want false")
	}
}

func TestCapture_OnRecvFrames(t *testing.T) {
	// 0.5, -1.0 as little-endian float32
	period := []byte{0x00, 0x00, 0x00, 0x3F, 0x00, 0x00, 0x80, 0xBF}

	mono := &Capture{config: DefaultConfig(), Samples: make(chan []float32, 4)}
	mono.onRecvFrames(nil, period, 2)
	got := <-mono.Samples
	if len(got) != 2 || got[0] != 0.5 || got[1] != -1.0 {
		t.Errorf("mono period = %v, want [0.5 -1]", got)
	}
	period[0] = 0xFF
	if got[0] != 0.5 {
		t.Error("delivered samples must not alias the device buffer")
	}
	period[0] = 0x00

	cfg := DefaultConfig()
	cfg.Channels = 2
	stereo := &Capture{config: cfg, Samples: make(chan []float32, 4)}
	stereo.onRecvFrames(nil, period, 1)
	if got := <-stereo.Samples; len(got) != 1 || got[0] != -0.25 {
		t.Errorf("stereo period = %v, want [-0.25]", got)
	}

	stereo.onRecvFrames(nil, nil, 0)
	stereo.closed.Store(true)
	stereo.onRecvFrames(nil, period, 1)
	select {
	case got := <-stereo.Samples:
		t.Errorf("unexpected chunk %v after close or empty period", got)
	default:
	}
}

func TestCapture_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	if _, err := capture.ListDevices(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
	if err := capture.Start(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
	if err := capture.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestCapture_Start_AlreadyRunning(t *testing.T) {
	capture := New(DefaultConfig())
	capture.running.Store(true)

	if err := capture.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Start() when running error = %v, want ErrAlreadyRunning", err)
	}
}

func TestBytesToFloat32(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  []float32
	}{
		{"empty", []byte{}, []float32{}},
		{"partial", []byte{0x00, 0x00, 0x80}, []float32{}},
		{"one", []byte{0x00, 0x00, 0x80, 0x3F}, []float32{1.0}},
		{"extra bytes", []byte{0x00, 0x00, 0x80, 0x3F, 0xFF}, []float32{1.0}},
		{
			"several",
			[]byte{
				0x00, 0x00, 0x00, 0x00, // 0.0
				0x00, 0x00, 0x00, 0x3F, // 0.5
				0x00, 0x00, 0x80, 0xBF, // -1.0
			},
			[]float32{0, 0.5, -1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bytesToFloat32(tt.bytes)
			if len(got) != len(tt.want) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFloat32frombits(t *testing.T) {
	if got := float32frombits(0x40000000); got != 2.0 {
		t.Errorf("float32frombits(0x40000000) = %f, want 2.0", got)
	}
	if got := float32frombits(0x7FC00000); !math.IsNaN(float64(got)) {
		t.Errorf("float32frombits(NaN bits) = %f, want NaN", got)
	}
	if got := float32frombits(0xFF800000); !math.IsInf(float64(got), -1) {
		t.Errorf("float32frombits(-Inf bits) = %f, want -Inf", got)
	}
}

func TestBytesAsFloat32(t *testing.T) {
	data := []byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x80, 0xBF}

	result := bytesAsFloat32(data)
	if len(result) != 2 || result[0] != 1.0 || result[1] != -1.0 {
		t.Fatalf("bytesAsFloat32() = %v, want [1 -1]", result)
	}

	// aliases the input
	data[3] = 0x40
	if result[0] != 2.0 {
		t.Errorf("bytesAsFloat32 result[0] = %f after write, want 2.0", result[0])
	}

	if bytesAsFloat32([]byte{0x00, 0x00, 0x80}) != nil {
		t.Error("bytesAsFloat32(3 bytes) should be nil")
	}
}

func TestCopyFloat32Slice(t *testing.T) {
	original := []float32{1.0, 2.0, 3.0}
	copied := copyFloat32Slice(original)

	original[0] = 999.0
	if copied[0] != 1.0 {
		t.Error("copyFloat32Slice did not create independent copy")
	}
	if copyFloat32Slice(nil) != nil {
		t.Error("copyFloat32Slice(nil) should be nil")
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		in       []float32
		channels int
		want     []float32
	}{
		{"mono copies", []float32{0.1, 0.2}, 1, []float32{0.1, 0.2}},
		{"stereo", []float32{1, 0, 0.5, 0.5, -1, 1}, 2, []float32{0.5, 0.5, 0}},
		{"partial frame dropped", []float32{1, 1, 1}, 2, []float32{1}},
		{"quad", []float32{1, 1, 1, 1}, 4, []float32{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := downmix(tt.in, tt.channels)
			if len(got) != len(tt.want) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %f, want %f", i, got[i], tt.want[i])
				}
			}
			if len(tt.in) > 0 && &got[0] == &tt.in[0] {
				t.Error("downmix must not alias its input")
			}
		})
	}
}

func TestDeviceID_OutOfRange(t *testing.T) {
	if _, err := deviceID(nil, 0); !errors.Is(err, ErrDeviceIndex) {
		t.Errorf("deviceID(nil, 0) error = %v, want ErrDeviceIndex", err)
	}
	if _, err := deviceID(nil, -1); !errors.Is(err, ErrDeviceIndex) {
		t.Errorf("deviceID(nil, -1) error = %v, want ErrDeviceIndex", err)
	}
}

func TestCapture_SafeSend(t *testing.T) {
	capture := &Capture{config: DefaultConfig(), Samples: make(chan []float32, 1)}

	capture.safeSend([]float32{1.0})
	// full: dropped without blocking
	capture.safeSend([]float32{2.0})

	if got := <-capture.Samples; got[0] != 1.0 {
		t.Errorf("expected first chunk, got %v", got)
	}
	select {
	case <-capture.Samples:
		t.Error("channel should be empty after draining")
	default:
	}

	close(capture.Samples)
	// must recover from the closed channel
	capture.safeSend([]float32{3.0})
}

func TestCapture_CloseOnce(t *testing.T) {
	capture := New(DefaultConfig())
	if capture.closed.Load() {
		t.Error("closed flag should be false initially")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = capture.Close()
		}()
	}
	wg.Wait()

	if !capture.closed.Load() {
		t.Error("closed flag should be true after Close()")
	}
	if _, ok := <-capture.Samples; ok {
		t.Error("Samples should be closed")
	}
}

func BenchmarkBytesToFloat32(b *testing.B) {
	data := make([]byte, 1024*4)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bytesToFloat32(data)
	}
}

func BenchmarkDownmixStereo(b *testing.B) {
	data := make([]float32, 2048)
	for i := range data {
		data[i] = float32(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = downmix(data, 2)
	}
}

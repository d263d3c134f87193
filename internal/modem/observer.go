// internal/modem/observer.go
package modem

import "fmt"

// StatusKind identifies a receiver state transition.
type StatusKind int

const (
	// StatusListening: searching for a transmission
	StatusListening StatusKind = iota
	// StatusLocked: preamble and start marker found, decoding
	StatusLocked
	// StatusResync: header not found, retrying with shifted symbol phase
	StatusResync
	// StatusSignalLost: too many unreadable symbols, back to searching
	StatusSignalLost
	// StatusHeaderNotFound: header search exhausted, back to searching
	StatusHeaderNotFound
	// StatusFrameReceived: a complete frame passed its checksum
	StatusFrameReceived
	// StatusChecksumMismatch: a complete frame failed its checksum
	StatusChecksumMismatch
	// StatusCalibrated: noise profile measured and active
	StatusCalibrated
	// StatusCalibrationTooShort: too little audio to calibrate, running uncalibrated
	StatusCalibrationTooShort
	// StatusWeakSignal: nothing locked and the input level is very low
	StatusWeakSignal
	// StatusNoiseProfileDisabled: no lock for too long, normalization turned off
	StatusNoiseProfileDisabled
)

var statusText = map[StatusKind]string{
	StatusListening:            "listening for a new signal",
	StatusLocked:               "signal detected, decoding",
	StatusResync:               "resynchronizing symbol phase",
	StatusSignalLost:           "signal lost, listening again",
	StatusHeaderNotFound:       "header not found, listening again",
	StatusFrameReceived:        "image received",
	StatusChecksumMismatch:     "checksum mismatch, retransmit the image",
	StatusCalibrated:           "noise calibration complete",
	StatusCalibrationTooShort:  "noise calibration too short, decoding uncalibrated",
	StatusWeakSignal:           "input level very low, move the microphone closer or raise the volume",
	StatusNoiseProfileDisabled: "no lock yet, noise profile disabled",
}

func (k StatusKind) String() string {
	if s, ok := statusText[k]; ok {
		return s
	}
	return fmt.Sprintf("StatusKind(%d)", int(k))
}

// Status is a state transition notice. Err is set for error conditions.
type Status struct {
	Kind StatusKind
	Err  error
}

func (s Status) String() string {
	return s.Kind.String()
}

// IsError reports whether the status describes a failure.
func (s Status) IsError() bool {
	return s.Err != nil
}

// Observer receives decoder events. Calls happen synchronously on the
// goroutine driving the decoder and must not block.
type Observer interface {
	// OnStatus reports a state transition.
	OnStatus(s Status)
	// OnSync reports header bytes seen so far (0..7) while hunting.
	OnSync(headerBytes int)
	// OnProgress reports payload completion in percent.
	OnProgress(percent int)
	// OnFrameStart fires once per accepted header.
	OnFrameStart(width, height int)
	// OnPayloadByte fires for every payload byte, in order.
	OnPayloadByte(index int, value byte, payloadLen int)
}

// Funcs adapts optional callbacks to an Observer. Nil fields are skipped.
type Funcs struct {
	Status      func(Status)
	Sync        func(headerBytes int)
	Progress    func(percent int)
	FrameStart  func(width, height int)
	PayloadByte func(index int, value byte, payloadLen int)
}

func (f Funcs) OnStatus(s Status) {
	if f.Status != nil {
		f.Status(s)
	}
}

func (f Funcs) OnSync(headerBytes int) {
	if f.Sync != nil {
		f.Sync(headerBytes)
	}
}

func (f Funcs) OnProgress(percent int) {
	if f.Progress != nil {
		f.Progress(percent)
	}
}

func (f Funcs) OnFrameStart(width, height int) {
	if f.FrameStart != nil {
		f.FrameStart(width, height)
	}
}

func (f Funcs) OnPayloadByte(index int, value byte, payloadLen int) {
	if f.PayloadByte != nil {
		f.PayloadByte(index, value, payloadLen)
	}
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnStatus(Status) {}
func (NopObserver) OnSync(int) {}
func (NopObserver) OnProgress(int) {}
func (NopObserver) OnFrameStart(int, int) {}
func (NopObserver) OnPayloadByte(int, byte, int) {}

type multiObserver []Observer

// Observers fans every event out to each observer in order. Nil entries are dropped.
func Observers(obs ...Observer) Observer {
	m := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) OnStatus(s Status) {
	for _, o := range m {
		o.OnStatus(s)
	}
}

func (m multiObserver) OnSync(headerBytes int) {
	for _, o := range m {
		o.OnSync(headerBytes)
	}
}

func (m multiObserver) OnProgress(percent int) {
	for _, o := range m {
		o.OnProgress(percent)
	}
}

func (m multiObserver) OnFrameStart(width, height int) {
	for _, o := range m {
		o.OnFrameStart(width, height)
	}
}

func (m multiObserver) OnPayloadByte(index int, value byte, payloadLen int) {
	for _, o := range m {
		o.OnPayloadByte(index, value, payloadLen)
	}
}

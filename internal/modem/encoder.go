// internal/modem/encoder.go
package modem

import (
	"time"

	"github.com/ColonelBlimp/tonecast/internal/protocol"
)

// Transmission is an encoded frame ready to be modulated.
type Transmission struct {
	Header protocol.Header
	Packet []byte
	Tones  []protocol.Tone
}

// Encode frames an RGB payload and converts it to its tone sequence.
func Encode(payload []byte, width, height int) (*Transmission, error) {
	packet, err := protocol.BuildPacket(payload, width, height)
	if err != nil {
		return nil, err
	}
	return &Transmission{
		Header: protocol.Header{Width: width, Height: height, Mode: protocol.ModeRGB},
		Packet: packet,
		Tones:  protocol.ToneSequence(packet),
	}, nil
}

// Duration is the nominal on-air time of the tone sequence.
func (t *Transmission) Duration() time.Duration {
	return time.Duration(len(t.Tones)) * protocol.SymbolDuration
}

// Samples renders the tone sequence at sampleRate with the given peak amplitude.
func (t *Transmission) Samples(sampleRate, amplitude float64) ([]float32, error) {
	m, err := NewModulator(sampleRate, amplitude)
	if err != nil {
		return nil, err
	}
	return m.Render(t.Tones), nil
}

// internal/protocol/tones.go
package protocol

import "fmt"

// Tone is a position in the frequency table. Detector state that is kept
// per tracked frequency is indexed by Tone instead of by frequency.
type Tone int

// Fixed table positions. Nibble n lives at ToneNibble0+n.
const (
	TonePreambleA Tone = iota
	TonePreambleB
	ToneStart
	ToneNibble0
)

// NumTones is the number of tracked frequencies.
const NumTones = int(ToneNibble0) + NibbleValues

var frequencyTable = func() (t [NumTones]float64) {
	t[TonePreambleA] = PreambleAFrequency
	t[TonePreambleB] = PreambleBFrequency
	t[ToneStart] = StartFrequency
	for n := 0; n < NibbleValues; n++ {
		t[int(ToneNibble0)+n] = NibbleBaseFrequency + float64(n)*NibbleStepFrequency
	}
	return t
}()

// Frequencies returns the tracked frequencies in table order.
func Frequencies() [NumTones]float64 {
	return frequencyTable
}

// NibbleTone returns the tone carrying the low 4 bits of n.
func NibbleTone(n byte) Tone {
	return ToneNibble0 + Tone(n&0x0f)
}

// Frequency returns the tone frequency in Hz.
func (t Tone) Frequency() float64 {
	return frequencyTable[t]
}

// Nibble reports the nibble value carried by t, if it is a nibble tone.
func (t Tone) Nibble() (byte, bool) {
	if t < ToneNibble0 || int(t) >= NumTones {
		return 0, false
	}
	return byte(t - ToneNibble0), true
}

func (t Tone) String() string {
	switch t {
	case TonePreambleA:
		return "preamble-A"
	case TonePreambleB:
		return "preamble-B"
	case ToneStart:
		return "start"
	}
	if n, ok := t.Nibble(); ok {
		return fmt.Sprintf("nibble-%X", n)
	}
	return fmt.Sprintf("Tone(%d)", int(t))
}

// ToneSequence converts a packet to its on-air symbol order: alternating
// preamble, start marker, then high and low nibble of every packet byte.
func ToneSequence(packet []byte) []Tone {
	tones := make([]Tone, 0, PreambleSymbols+StartSymbols+2*len(packet))
	for i := 0; i < PreambleSymbols; i++ {
		if i%2 == 0 {
			tones = append(tones, TonePreambleA)
		} else {
			tones = append(tones, TonePreambleB)
		}
	}
	for i := 0; i < StartSymbols; i++ {
		tones = append(tones, ToneStart)
	}
	for _, b := range packet {
		tones = append(tones, NibbleTone(b>>4), NibbleTone(b))
	}
	return tones
}

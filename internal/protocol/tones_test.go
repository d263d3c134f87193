// internal/protocol/tones_test.go
package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencies(t *testing.T) {
	freqs := Frequencies()
	assert.Len(t, freqs, 19)
	assert.Equal(t, 1200.0, freqs[TonePreambleA])
	assert.Equal(t, 1900.0, freqs[TonePreambleB])
	assert.Equal(t, 2300.0, freqs[ToneStart])
	assert.Equal(t, 1400.0, freqs[ToneNibble0])
	assert.Equal(t, 2150.0, freqs[NumTones-1])
}

func TestNibbleTone(t *testing.T) {
	for n := byte(0); n < NibbleValues; n++ {
		tone := NibbleTone(n)
		got, ok := tone.Nibble()
		assert.True(t, ok)
		assert.Equal(t, n, got)
		assert.Equal(t, 1400.0+50.0*float64(n), tone.Frequency())
	}
	// only the low 4 bits are used
	assert.Equal(t, NibbleTone(0x0A), NibbleTone(0xFA))

	_, ok := ToneStart.Nibble()
	assert.False(t, ok)
	_, ok = TonePreambleA.Nibble()
	assert.False(t, ok)
}

func TestToneString(t *testing.T) {
	assert.Equal(t, "preamble-A", TonePreambleA.String())
	assert.Equal(t, "start", ToneStart.String())
	assert.Equal(t, "nibble-F", NibbleTone(15).String())
}

func TestToneSequence(t *testing.T) {
	tones := ToneSequence([]byte{0x4E, 0x07})
	assert.Len(t, tones, PreambleSymbols+StartSymbols+4)

	for i := 0; i < PreambleSymbols; i++ {
		want := TonePreambleA
		if i%2 == 1 {
			want = TonePreambleB
		}
		assert.Equal(t, want, tones[i], "preamble symbol %d", i)
	}
	for i := PreambleSymbols; i < PreambleSymbols+StartSymbols; i++ {
		assert.Equal(t, ToneStart, tones[i])
	}

	data := tones[PreambleSymbols+StartSymbols:]
	assert.Equal(t, []Tone{NibbleTone(4), NibbleTone(0xE), NibbleTone(0), NibbleTone(7)}, data)
}

func TestSymbolSamples(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{48000, 154},
		{44100, 141},
		{16000, 64},
		{8000, 64},
		{96000, 307},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SymbolSamples(tt.rate), "rate %v", tt.rate)
	}
}

// internal/protocol/constants.go
// Package protocol defines the acoustic link layer shared by transmitter and
// receiver: tone alphabet, symbol timing, packet layout and checksum.
// Every value here is part of the on-air contract and must match exactly
// between two independent implementations.
package protocol

import (
	"math"
	"time"
)

// Packet framing
const (
	// MagicSize is the length of the frame magic
	MagicSize = 4
	// HeaderSize covers magic, width, height and mode
	HeaderSize = MagicSize + 3
	// ChecksumSize is the big-endian 16-bit running sum after the payload
	ChecksumSize = 2
	// BytesPerPixel is the interleaved RGB payload layout
	BytesPerPixel = 3

	// ModeRGB is the only supported mode byte
	ModeRGB = 1

	// MinDimension and MaxDimension bound width and height of an accepted frame
	MinDimension = 8
	MaxDimension = 64
)

// Magic opens every packet ("EMM1").
var Magic = [MagicSize]byte{0x45, 0x4d, 0x4d, 0x31}

// Tone plan
const (
	// PreambleAFrequency is sent on even preamble symbols
	PreambleAFrequency = 1200.0
	// PreambleBFrequency is sent on odd preamble symbols
	PreambleBFrequency = 1900.0
	// PreambleSymbols is the length of the alternating A/B preamble
	PreambleSymbols = 24
	// StartFrequency marks the end of the preamble
	StartFrequency = 2300.0
	// StartSymbols is how many start-marker symbols follow the preamble
	StartSymbols = 4
	// NibbleBaseFrequency is the tone for nibble 0
	NibbleBaseFrequency = 1400.0
	// NibbleStepFrequency separates consecutive nibble tones
	NibbleStepFrequency = 50.0
	// NibbleValues is the size of the nibble alphabet
	NibbleValues = 16
)

// Symbol timing
const (
	// SymbolDuration is the nominal duration of one symbol
	SymbolDuration = 3200 * time.Microsecond
	// MinSymbolSamples keeps the detector window usable at low sample rates
	MinSymbolSamples = 64
)

// SymbolSamples returns the number of samples in one symbol at sampleRate.
// Transmitter and receiver both use this value so the symbol grids agree.
func SymbolSamples(sampleRate float64) int {
	n := int(math.Round(sampleRate * SymbolDuration.Seconds()))
	return max(MinSymbolSamples, n)
}

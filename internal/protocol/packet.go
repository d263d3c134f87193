// internal/protocol/packet.go
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Packet layout:
//
//	magic(4) | width(1) | height(1) | mode(1) | payload(width*height*3) | checksum(2, BE)
//
// The checksum is the 16-bit wrapping sum of every byte before it.

// Header is the fixed part of a packet after the magic.
type Header struct {
	Width  int
	Height int
	Mode   byte
}

// Valid reports whether the header would be accepted by a receiver.
func (h Header) Valid() bool {
	return h.Mode == ModeRGB &&
		h.Width >= MinDimension && h.Width <= MaxDimension &&
		h.Height >= MinDimension && h.Height <= MaxDimension
}

// PayloadLen is the RGB payload size announced by the header.
func (h Header) PayloadLen() int {
	return h.Width * h.Height * BytesPerPixel
}

// PacketLen is the total packet size including header and checksum.
func (h Header) PacketLen() int {
	return HeaderSize + h.PayloadLen() + ChecksumSize
}

// Checksum returns the 16-bit wrapping sum of data.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// BuildPacket frames an RGB payload. The payload must be exactly
// width*height*3 bytes and both dimensions must be in range.
func BuildPacket(payload []byte, width, height int) ([]byte, error) {
	h := Header{Width: width, Height: height, Mode: ModeRGB}
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(payload) != h.PayloadLen() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrPayloadLength, len(payload), h.PayloadLen())
	}

	packet := make([]byte, 0, h.PacketLen())
	packet = append(packet, Magic[:]...)
	packet = append(packet, byte(width), byte(height), ModeRGB)
	packet = append(packet, payload...)
	packet = binary.BigEndian.AppendUint16(packet, Checksum(packet))
	return packet, nil
}

// HeaderAt parses a header at data[pos:]. It returns false unless the magic
// matches and the header is acceptable.
func HeaderAt(data []byte, pos int) (Header, bool) {
	if pos < 0 || pos+HeaderSize > len(data) {
		return Header{}, false
	}
	for i := 0; i < MagicSize; i++ {
		if data[pos+i] != Magic[i] {
			return Header{}, false
		}
	}
	h := Header{
		Width:  int(data[pos+MagicSize]),
		Height: int(data[pos+MagicSize+1]),
		Mode:   data[pos+MagicSize+2],
	}
	if !h.Valid() {
		return Header{}, false
	}
	return h, true
}

// FindHeader returns the first position >= from holding a valid header, or -1.
func FindHeader(data []byte, from int) int {
	for p := max(0, from); p+HeaderSize <= len(data); p++ {
		if _, ok := HeaderAt(data, p); ok {
			return p
		}
	}
	return -1
}

// ParsePacket validates a complete packet and returns its header and payload.
// The payload aliases packet.
func ParsePacket(packet []byte) (Header, []byte, error) {
	if len(packet) < HeaderSize+ChecksumSize {
		return Header{}, nil, ErrShortPacket
	}
	h, ok := HeaderAt(packet, 0)
	if !ok {
		return Header{}, nil, ErrBadHeader
	}
	if len(packet) < h.PacketLen() {
		return Header{}, nil, fmt.Errorf("%w: got %d, want %d", ErrShortPacket, len(packet), h.PacketLen())
	}
	if err := VerifyChecksum(packet[:h.PacketLen()]); err != nil {
		return Header{}, nil, err
	}
	return h, packet[HeaderSize : HeaderSize+h.PayloadLen()], nil
}

// VerifyChecksum checks the trailing big-endian checksum against the sum of
// all preceding bytes.
func VerifyChecksum(packet []byte) error {
	if len(packet) < ChecksumSize {
		return ErrShortPacket
	}
	body := len(packet) - ChecksumSize
	want := binary.BigEndian.Uint16(packet[body:])
	if got := Checksum(packet[:body]); got != want {
		return fmt.Errorf("%w: computed 0x%04x, received 0x%04x", ErrChecksumMismatch, got, want)
	}
	return nil
}

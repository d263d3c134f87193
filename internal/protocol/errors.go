// internal/protocol/errors.go
package protocol

import "errors"

var (
	// ErrInvalidDimensions indicates width or height outside [MinDimension, MaxDimension]
	ErrInvalidDimensions = errors.New("frame dimensions out of range")
	// ErrPayloadLength indicates the payload is not width*height*3 bytes
	ErrPayloadLength = errors.New("payload length does not match dimensions")
	// ErrShortPacket indicates a packet too short to hold header and checksum
	ErrShortPacket = errors.New("packet too short")
	// ErrBadHeader indicates missing magic or an unsupported mode/dimension
	ErrBadHeader = errors.New("invalid packet header")
	// ErrChecksumMismatch indicates the transmitted checksum does not match the data
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

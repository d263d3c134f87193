// internal/modem/errors.go
package modem

import "errors"

var (
	// ErrSignalLost indicates too many consecutive unreadable symbols after lock
	ErrSignalLost = errors.New("signal lost")
	// ErrHeaderNotFound indicates no frame header within the search budget, even after a phase retry
	ErrHeaderNotFound = errors.New("frame header not found")
	// ErrInvalidVolume indicates a volume percentage outside 0..100
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")
	// ErrInvalidAmplitude indicates an amplitude outside (0, 1]
	ErrInvalidAmplitude = errors.New("amplitude must be in (0, 1]")
)

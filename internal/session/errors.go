// internal/session/errors.go
package session

import "errors"

var (
	// ErrWeakSignal indicates a long stretch without lock at a very low input level
	ErrWeakSignal = errors.New("input level too low to lock")
	// ErrEmissionInProgress indicates Emit was called while another emission is playing
	ErrEmissionInProgress = errors.New("emission already in progress")
	// ErrPlayerRequired indicates a transmitter was created without a player
	ErrPlayerRequired = errors.New("player is required")
)

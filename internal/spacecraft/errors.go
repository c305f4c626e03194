package spacecraft

import "errors"

var (
	ErrNoGravity    = errors.New("spacecraft: no gravity bodies attached")
	ErrInvalidHub   = errors.New("spacecraft: hub mass and inertia must be positive")
	ErrInvalidWheel = errors.New("spacecraft: invalid reaction wheel")
	ErrUnknownWheel = errors.New("spacecraft: unknown reaction wheel")
)

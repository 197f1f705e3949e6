package sim

import "errors"

// ErrInvalidOperation is returned when a lifecycle or connectivity call is
// not permitted in the engine's current state. The engine's state is left
// unchanged.
var ErrInvalidOperation = errors.New("operation not permitted in current state")

// ErrInvalidConfig is returned when a configuration setter receives a value
// outside its allowed range. The previous value is kept.
var ErrInvalidConfig = errors.New("invalid configuration value")

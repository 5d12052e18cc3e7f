package meter

import "errors"

// Sentinel errors for configuration and reading validation.
// Use errors.Is() to check for these in calling code.
var (
	// ErrInvalidConfig indicates the rooms/meters document is malformed:
	// missing fields, duplicate ids, or structural problems. Fatal at
	// startup — the process must not start on a bad configuration.
	ErrInvalidConfig = errors.New("meter: invalid configuration")

	// ErrInvalidReading indicates a user-entered value that is not a
	// valid meter reading (non-numeric or negative). Recovered per field;
	// other meters in the same submission are unaffected.
	ErrInvalidReading = errors.New("meter: invalid reading")

	// ErrUnknownMeter indicates a reading was submitted for a meter id
	// that is not present in the configuration.
	ErrUnknownMeter = errors.New("meter: unknown meter id")
)

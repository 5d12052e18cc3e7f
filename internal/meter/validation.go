package meter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Transform validates a raw user-entered value for a meter and applies
// the meter's offset.
//
// Blank or whitespace-only input means the field was left untouched:
// skipped is true and no Reading should be produced for this meter.
// Non-numeric and negative values fail with ErrInvalidReading — meter
// readings are cumulative counters and must be non-negative. Otherwise
// the stored value is raw + Offset.
//
// Transform has no side effects.
func Transform(m Meter, raw string) (stored float64, skipped bool, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, true, nil
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not a number", ErrInvalidReading, trimmed)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, fmt.Errorf("%w: %q is not a finite value", ErrInvalidReading, trimmed)
	}
	if value < 0 {
		return 0, false, fmt.Errorf("%w: reading %v is negative", ErrInvalidReading, value)
	}

	return value + m.Offset, false, nil
}

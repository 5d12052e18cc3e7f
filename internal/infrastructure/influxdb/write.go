package influxdb

import (
	"context"
	"fmt"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/watermon-core/internal/meter"
)

// WriteReading writes a single meter reading as one point.
//
// The point carries the configured measurement name, tags {room, meter},
// and a single float field "value" holding the offset-adjusted reading.
// The timestamp is the submission instant carried by the Reading.
//
// The write is blocking and is not retried: the caller decides whether to
// surface the failure to the user.
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//   - r: Validated reading (stored value already includes the offset)
//
// Returns:
//   - error: nil on success, ErrWriteFailed-wrapped error otherwise
func (c *Client) WriteReading(ctx context.Context, r meter.Reading) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(
		c.cfg.Measurement,
		map[string]string{
			"room":  r.Room,
			"meter": r.MeterID,
		},
		map[string]interface{}{
			"value": r.StoredValue,
		},
		r.Timestamp,
	)

	if err := c.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, r.MeterID, err)
	}

	return nil
}

package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/watermon-core/internal/meter"
)

// readingPayload is the JSON message published for each accepted reading.
type readingPayload struct {
	Meter     string  `json:"meter"`
	Room      string  `json:"room"`
	Value     float64 `json:"value"`
	Raw       float64 `json:"raw"`
	Timestamp string  `json:"timestamp"`
}

// PublishReading announces an accepted meter reading.
//
// The message is retained so new subscribers immediately see the last
// reading per meter. The value is the stored value (offset applied),
// matching what landed in InfluxDB.
//
// Parameters:
//   - r: The reading as written to the store
//
// Returns:
//   - error: ErrNotConnected or ErrPublishFailed; callers treat this as
//     best-effort and must not fail the submission on it
func (c *Client) PublishReading(r meter.Reading) error {
	topic := Topics{}.Reading(r.Room, r.MeterID)

	payload, err := json.Marshal(readingPayload{
		Meter:     r.MeterID,
		Room:      r.Room,
		Value:     r.StoredValue,
		Raw:       r.RawValue,
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublishFailed, err)
	}

	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to
//   - payload: The message payload (typically JSON)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

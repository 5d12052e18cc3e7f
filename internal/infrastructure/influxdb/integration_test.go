//go:build integration

package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/watermon-core/internal/infrastructure/config"
	"github.com/nerrad567/watermon-core/internal/meter"
)

// Integration tests against a real InfluxDB 1.8 server at 127.0.0.1:8086.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/influxdb/...

func integrationConfig() config.InfluxConfig {
	return config.InfluxConfig{
		Host:        "127.0.0.1",
		Port:        8086,
		Username:    "root",
		Password:    "root",
		Database:    "water-monitoring-test",
		Measurement: "water_meters",
	}
}

// TestIntegration_WriteAndReadBack verifies a written point comes back from
// a last-value query.
func TestIntegration_WriteAndReadBack(t *testing.T) {
	ctx := context.Background()

	client, err := Connect(ctx, integrationConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	ts := time.Now().Truncate(time.Second)
	reading := meter.Reading{
		MeterID:     "integration-cold",
		Room:        "integration",
		Timestamp:   ts,
		RawValue:    100.5,
		StoredValue: 142.5,
	}
	if err := client.WriteReading(ctx, reading); err != nil {
		t.Fatalf("WriteReading() error = %v", err)
	}

	value, when, err := client.LastValue(ctx, "integration", "integration-cold")
	if err != nil {
		t.Fatalf("LastValue() error = %v", err)
	}
	if value != 142.5 {
		t.Errorf("LastValue() = %v, want 142.5", value)
	}
	if when.Before(ts.Add(-time.Second)) {
		t.Errorf("LastValue() time = %v, want at or after %v", when, ts)
	}
}

// TestIntegration_NoData verifies an unknown meter reports ErrNoData.
func TestIntegration_NoData(t *testing.T) {
	ctx := context.Background()

	client, err := Connect(ctx, integrationConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	defer client.Close()

	_, _, err = client.LastValue(ctx, "nowhere", "no-such-meter")
	if !errors.Is(err, ErrNoData) {
		t.Errorf("LastValue() error = %v, want ErrNoData", err)
	}
}

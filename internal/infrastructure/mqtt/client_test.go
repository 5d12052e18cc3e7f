package mqtt

import (
	"strings"
	"testing"

	"github.com/nerrad567/watermon-core/internal/infrastructure/config"
)

// TestTopics verifies topic builders produce the documented scheme.
func TestTopics(t *testing.T) {
	topics := Topics{}

	if got := topics.Reading("kitchen", "kitchen-cold"); got != "watermon/reading/kitchen/kitchen-cold" {
		t.Errorf("Reading() = %q", got)
	}
	if got := topics.SystemStatus(); got != "watermon/system/status" {
		t.Errorf("SystemStatus() = %q", got)
	}
}

// TestBuildClientOptions verifies option construction from config.
func TestBuildClientOptions(t *testing.T) {
	t.Run("plain tcp", func(t *testing.T) {
		opts := buildClientOptions(config.MQTTConfig{
			Broker: config.MQTTBrokerConfig{
				Host:     "broker.local",
				Port:     1883,
				ClientID: "watermon-test",
			},
		})

		if len(opts.Servers) != 1 {
			t.Fatalf("len(Servers) = %d, want 1", len(opts.Servers))
		}
		if got := opts.Servers[0].String(); got != "tcp://broker.local:1883" {
			t.Errorf("broker URL = %q, want tcp://broker.local:1883", got)
		}
		if opts.ClientID != "watermon-test" {
			t.Errorf("ClientID = %q", opts.ClientID)
		}
	})

	t.Run("tls uses ssl scheme", func(t *testing.T) {
		opts := buildClientOptions(config.MQTTConfig{
			Broker: config.MQTTBrokerConfig{
				Host: "broker.local",
				Port: 8883,
				TLS:  true,
			},
		})

		if got := opts.Servers[0].String(); got != "ssl://broker.local:8883" {
			t.Errorf("broker URL = %q, want ssl://broker.local:8883", got)
		}
		if opts.TLSConfig == nil {
			t.Error("TLSConfig not set for TLS broker")
		}
	})

	t.Run("credentials", func(t *testing.T) {
		opts := buildClientOptions(config.MQTTConfig{
			Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 1883},
			Auth:   config.MQTTAuthConfig{Username: "meters", Password: "secret"},
		})

		if opts.Username != "meters" {
			t.Errorf("Username = %q", opts.Username)
		}
		if opts.Password != "secret" {
			t.Errorf("Password = %q", opts.Password)
		}
	})
}

// TestStatusPayloads verifies the online/offline JSON payloads.
func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("watermon")
	for _, want := range []string{`"status":"online"`, `"client_id":"watermon"`, `"timestamp"`} {
		if !strings.Contains(online, want) {
			t.Errorf("online payload %q missing %q", online, want)
		}
	}

	offline := buildOfflinePayload("watermon")
	for _, want := range []string{`"status":"offline"`, `"reason":"graceful_shutdown"`} {
		if !strings.Contains(offline, want) {
			t.Errorf("offline payload %q missing %q", offline, want)
		}
	}
}

// TestPublish_Validation verifies input validation before any broker I/O.
func TestPublish_Validation(t *testing.T) {
	c := &Client{}

	if err := c.Publish("", []byte("{}"), 1, false); err != ErrInvalidTopic {
		t.Errorf("Publish(empty topic) error = %v, want ErrInvalidTopic", err)
	}
}

// TestClose_NilClient verifies Close is safe before Connect.
func TestClose_NilClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

// Package mqtt provides the optional reading announcer.
//
// When enabled, every accepted meter reading is published to the broker so
// other home-automation services (dashboards, alerting, Node-RED flows) can
// react without polling InfluxDB. The announcer is publish-only: it never
// subscribes, and a broker outage never affects form submissions — callers
// treat publish failures as best-effort.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained per-meter reading announcements
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.PublishReading(reading)
package mqtt

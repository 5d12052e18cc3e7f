package mqtt

import "fmt"

// Topic prefixes for the announcer.
//
// Reading topics use the scheme: watermon/reading/{room}/{meter}
const (
	// TopicPrefix is the base for all announcer topics.
	TopicPrefix = "watermon"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "watermon/system"
)

// Topics provides builders for announcer MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// Reading returns the topic for a meter's reading announcements.
//
// Example: watermon/reading/kitchen/kitchen-cold
func (Topics) Reading(room, meterID string) string {
	return fmt.Sprintf("%s/reading/%s/%s", TopicPrefix, room, meterID)
}

// SystemStatus returns the topic for the service's online/offline status.
//
// Example: watermon/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

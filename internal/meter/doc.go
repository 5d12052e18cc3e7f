// Package meter defines the static rooms/meters configuration model and
// the reading validation rules.
//
// Rooms and meters are loaded once at startup from a YAML document and are
// immutable for the process lifetime; changing the configuration requires a
// restart. A Reading is the ephemeral product of one validated form field:
// it is written to the time-series store and then discarded.
package meter

// Package config loads and validates the watermon service configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. Hardcoded defaults
//  2. The YAML configuration file
//  3. Environment variables (INFLUX_IP, INFLUX_PORT, INFLUX_USER,
//     INFLUX_PASSWD, DB_NAME, TIMEZONE, DEBUG)
//
// The rooms/meters document is a separate file referenced by rooms_file;
// it is parsed by the meter package, not here.
package config

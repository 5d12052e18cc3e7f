// Package influxdb provides the InfluxDB 1.x client for watermon.
//
// Point writes go through influxdb-client-go in its 1.8 compatibility
// mode ("user:password" token, "database" bucket, empty org). Queries use
// the raw /query endpoint because the v2 client library exposes no
// InfluxQL surface and Flux is not available on 1.x servers.
//
// One point is written per accepted meter reading:
//
//	measurement = configured name (default "water_meters")
//	tags        = {room, meter}
//	field       = value (float64, offset already applied)
//	timestamp   = submission instant, second precision
//
// Writes are blocking and not retried; a failed write surfaces to the
// caller and the reading is lost unless the user resubmits.
package influxdb

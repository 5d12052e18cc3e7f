package influxdb

import "errors"

// Sentinel errors for store operations.
//
// These can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influxdb.ErrWriteFailed) {
//	    // Report the failed meter to the user
//	}
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed indicates a point write was rejected or the server
	// was unreachable. The write is not retried.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrQueryFailed indicates an InfluxQL query failed.
	ErrQueryFailed = errors.New("influxdb: query failed")

	// ErrNoData indicates a query matched no series (meter never written).
	ErrNoData = errors.New("influxdb: no data for series")
)

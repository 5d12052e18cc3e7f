// Package api provides the HTTP server for the meter reading service.
//
// It serves the reading form (server-rendered HTML, embedded via go:embed)
// and a small JSON API for health checks, meter configuration, latest
// readings, single-reading submission, and journal queries.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/watermon-core/internal/infrastructure/config"
	"github.com/nerrad567/watermon-core/internal/infrastructure/logging"
	"github.com/nerrad567/watermon-core/internal/journal"
	"github.com/nerrad567/watermon-core/internal/submission"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// LatestReader returns the most recent stored value for a meter.
// Implemented by influxdb.Client.
type LatestReader interface {
	LastValue(ctx context.Context, room, meterID string) (float64, time.Time, error)
}

// HealthChecker reports component health. Implemented by the InfluxDB
// client, the journal database, and the MQTT announcer.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.ServerConfig
	Logger      *logging.Logger
	Submissions *submission.Service
	Latest      LatestReader       // optional: form prefill degrades to empty fields
	Store       HealthChecker      // the time-series store, reported in /health
	Journal     journal.Repository // optional: nil disables /submissions
	JournalDB   HealthChecker      // optional
	Broker      HealthChecker      // optional
	Version     string
}

// Server is the HTTP server for the meter reading service.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg         config.ServerConfig
	logger      *logging.Logger
	submissions *submission.Service
	latest      LatestReader
	store       HealthChecker
	journal     journal.Repository
	journalDB   HealthChecker
	broker      HealthChecker
	version     string
	server      *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, submission service)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Submissions == nil {
		return nil, fmt.Errorf("submission service is required")
	}

	return &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		submissions: deps.Submissions,
		latest:      deps.Latest,
		store:       deps.Store,
		journal:     deps.Journal,
		journalDB:   deps.JournalDB,
		broker:      deps.Broker,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context (reserved for future use; listener lifetime is managed by Close)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("http server not started")
	}

	return nil
}

// Watermon - Household Water Meter Reading Service
//
// This is the main entry point for the watermon service. It serves a
// reading form for the household's water meters, validates and
// offset-adjusts submitted readings, and writes them as tagged points
// to InfluxDB. Optionally it journals per-meter outcomes in SQLite and
// announces accepted readings over MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/watermon-core/internal/api"
	"github.com/nerrad567/watermon-core/internal/infrastructure/config"
	"github.com/nerrad567/watermon-core/internal/infrastructure/database"
	"github.com/nerrad567/watermon-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/watermon-core/internal/infrastructure/logging"
	"github.com/nerrad567/watermon-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/watermon-core/internal/journal"
	"github.com/nerrad567/watermon-core/internal/meter"
	"github.com/nerrad567/watermon-core/internal/submission"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting watermon",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration. Any configuration problem is fatal at startup.
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Load the meter configuration
	rooms, err := meter.LoadRooms(cfg.RoomsFile)
	if err != nil {
		return fmt.Errorf("loading rooms: %w", err)
	}
	meterCount := 0
	for _, room := range rooms {
		meterCount += len(room.Meters)
	}
	log.Info("meter configuration loaded",
		"path", cfg.RoomsFile,
		"rooms", len(rooms),
		"meters", meterCount,
	)

	location, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	// Open the journal database (optional)
	var db *database.DB
	var journalRepo journal.Repository
	if cfg.Journal.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening journal database: %w", err)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()
		log.Info("journal database connected", "path", cfg.Journal.Path)

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("journal migrations complete")

		journalRepo = journal.NewSQLiteRepository(db.DB)
	} else {
		log.Info("journal disabled")
	}

	// Connect to InfluxDB
	influxClient, err := influxdb.Connect(ctx, cfg.Influx)
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	defer func() {
		log.Info("closing InfluxDB connection")
		if closeErr := influxClient.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}()
	log.Info("InfluxDB connected",
		"url", cfg.Influx.URL(),
		"database", cfg.Influx.Database,
		"measurement", cfg.Influx.Measurement,
	)

	// Connect to the MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT announcer disabled")
	}

	// Build the submission service
	var announcer submission.Announcer
	if mqttClient != nil {
		announcer = mqttClient
	}
	submissions := submission.New(submission.Options{
		Rooms:     rooms,
		Writer:    influxClient,
		Journal:   journalRepo,
		Announcer: announcer,
		Location:  location,
		Logger:    log.With("component", "submission"),
	})

	// Build and start the HTTP server
	deps := api.Deps{
		Config:      cfg.Server,
		Logger:      log.With("component", "api"),
		Submissions: submissions,
		Latest:      influxClient,
		Store:       influxClient,
		Journal:     journalRepo,
		Version:     version,
	}
	if db != nil {
		deps.JournalDB = db
	}
	if mqttClient != nil {
		deps.Broker = mqttClient
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating HTTP server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting HTTP server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing HTTP server", "error", closeErr)
		}
	}()
	log.Info("HTTP server started",
		"address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, influxClient, db, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. HTTP server
	// 2. MQTT (if enabled)
	// 3. InfluxDB
	// 4. Journal database (if enabled)

	log.Info("watermon stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses WATERMON_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WATERMON_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - influxClient: InfluxDB client to check
//   - db: Journal database to check (may be nil if disabled)
//   - mqttClient: MQTT client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, influxClient *influxdb.Client, db *database.DB, mqttClient *mqtt.Client) error {
	if err := influxClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("influxdb: %w", err)
	}

	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	return nil
}

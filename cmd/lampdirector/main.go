// lampdirector - reactive desk lamp controller
//
// lampdirector listens to a device's motion and illuminance sensors over
// MQTT and drives its RGB LED strip: on at a fixed brightness when someone
// is around in the dark, off once nobody has moved for a while.
//
// Configuration comes from an optional YAML file (-config or
// LAMPDIRECTOR_CONFIG) and the environment (MQTT_HOST, MQTT_PORT,
// DALEQ_DEVICE, ...).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/lampdirector/migrations"

	"github.com/nerrad567/lampdirector/internal/api"
	"github.com/nerrad567/lampdirector/internal/audit"
	"github.com/nerrad567/lampdirector/internal/director"
	"github.com/nerrad567/lampdirector/internal/infrastructure/config"
	"github.com/nerrad567/lampdirector/internal/infrastructure/database"
	"github.com/nerrad567/lampdirector/internal/infrastructure/influxdb"
	"github.com/nerrad567/lampdirector/internal/infrastructure/logging"
	"github.com/nerrad567/lampdirector/internal/infrastructure/metrics"
	"github.com/nerrad567/lampdirector/internal/infrastructure/mqtt"
	"github.com/nerrad567/lampdirector/internal/lamp"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, getConfigPath(*configPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, blocks until ctx is cancelled and then shuts
// everything down in reverse order.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML file to load, or "" for defaults plus environment
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting lampdirector",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"device_id", cfg.Device.ID,
		"level", cfg.Logging.Level,
	)

	m := metrics.New()
	observers := []director.Observer{m}
	checks := map[string]api.HealthChecker{}

	var actuations *audit.SQLiteRepository
	if cfg.Database.Enabled {
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		schema, _ := db.SchemaVersion(ctx) //nolint:errcheck // informational only
		log.Info("database ready", "path", cfg.Database.Path, "schema", schema)

		actuations = audit.NewSQLiteRepository(db.DB)
		writer := audit.NewWriter(actuations, audit.WriterOptions{
			DeviceID:  cfg.Device.ID,
			Retention: cfg.GetRetention(),
			Logger:    log.Component("audit"),
		})
		writer.Start(ctx)
		defer func() {
			writer.Close()
			if n := writer.Dropped(); n > 0 {
				log.Warn("actuation log entries dropped", "count", n)
			}
		}()

		observers = append(observers, writer)
		checks["database"] = db
	} else {
		log.Info("actuation log disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
			if n := influxClient.Dropped(); n > 0 {
				log.Warn("telemetry points dropped", "count", n)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		observers = append(observers, influxdb.NewObserver(influxClient, cfg.Device.ID))
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	mqttClient, err := mqtt.ConnectWithLogger(ctx, cfg.MQTT, log.Component("mqtt"))
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
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	checks["mqtt"] = mqttClient

	qos := byte(cfg.MQTT.QoS) //nolint:gosec // validated to 0-2
	ctrl, err := director.New(director.Options{
		DeviceID:        cfg.Device.ID,
		Selectors:       selectorsFromConfig(cfg.Device.Selectors),
		Policy:          policyFromConfig(cfg),
		SuppressRepeats: cfg.Policy.SuppressRepeats,
		TickInterval:    cfg.GetTickInterval(),
		Publisher:       mqttClient.NewPublisher(qos),
		Observer:        director.Observers(observers...),
		Logger:          log.Component("director"),
	})
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}
	m.TrackObservations(func() int { return ctrl.Snapshot().Observations })

	subscription := ctrl.SubscriptionTopic()
	if err := mqttClient.Subscribe(subscription, qos, ctrl.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", subscription, err)
	}
	defer func() {
		// Stop deliveries before the controller's observers are closed.
		if unsubErr := mqttClient.Unsubscribe(subscription); unsubErr != nil {
			log.Warn("error unsubscribing", "topic", subscription, "error", unsubErr)
		}
	}()
	log.Info("listening for device messages",
		"topic", subscription,
		"device_id", ctrl.DeviceID(),
	)

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:     cfg.API,
			Logger:     log.Component("api"),
			Controller: ctrl,
			Metrics:    m,
			Checks:     checks,
			Version:    version,
		}
		if actuations != nil {
			deps.Commands = actuations
		}

		srv, err := api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Run(ctx)
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	<-done

	return nil
}

// getConfigPath prefers the -config flag, then LAMPDIRECTOR_CONFIG.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("LAMPDIRECTOR_CONFIG")
}

func selectorsFromConfig(s config.SelectorsConfig) director.Selectors {
	return director.Selectors{
		Motion:      s.Motion,
		LED:         s.LED,
		Illuminance: s.Illuminance,
	}
}

// policyFromConfig builds the lamp policy. Channel levels are validated to
// 0-255 by config.Validate.
func policyFromConfig(cfg *config.Config) lamp.Policy {
	b := cfg.Policy.Brightness
	return lamp.Policy{
		Window:        cfg.GetMotionWindow(),
		DarkThreshold: cfg.Policy.DarkThreshold,
		On: lamp.Command{
			R: uint8(b.R), //nolint:gosec // validated
			G: uint8(b.G), //nolint:gosec // validated
			B: uint8(b.B), //nolint:gosec // validated
		},
	}
}

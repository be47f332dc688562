// glyphd - Glyph LED control daemon
//
// glyphd owns the phone's glyph LED array: it binds to the hardware LED
// service over a Unix socket, arbitrates access among background features
// (unlock show, shake battery peek, guard alarm, charging story, low-battery
// alert), and exposes a local control API for manual demos and operations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bleelblep/Glyph-Sharge-sub002/internal/animation"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/api"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/coordinator"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/features"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/glyph"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/history"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/config"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/database"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/logging"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/infrastructure/mqtt"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/ledlink"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/session"
	"github.com/bleelblep/Glyph-Sharge-sub002/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
//nolint:gocognit // Sequential component wiring; splitting it obscures the startup order
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting glyphd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	// Identify the hardware variant. An unrecognised model still runs the
	// daemon (status, session control) but animations refuse to start.
	kind := glyph.DetectKind(cfg.Hardware.DeviceModel)
	if !kind.IsRecognised() {
		log.Warn("unrecognised device model, animations disabled",
			"model", cfg.Hardware.DeviceModel,
		)
	}
	profile := glyph.Profile(kind)
	log.Info("device profile selected", "kind", kind, "channels", profile.ChannelCount())

	// Bind to the LED control service.
	link := ledlink.NewClient(ledlink.Config{
		SocketPath:  cfg.Hardware.SocketPath,
		DialTimeout: cfg.GetDialTimeout(),
	})
	link.SetLogger(log.With("component", "ledlink"))

	sessions := session.NewManager(link, kind, session.Config{
		ReconnectDelay: cfg.GetReconnectDelay(),
		EnsureTimeout:  cfg.GetEnsureTimeout(),
	})
	sessions.SetLogger(log.With("component", "session"))
	defer func() {
		log.Info("closing glyph service binding")
		if closeErr := sessions.Close(); closeErr != nil {
			log.Error("error closing binding", "error", closeErr)
		}
	}()

	if initErr := sessions.Initialize(ctx); initErr != nil {
		// Not fatal: the service may come up after us. Recovery rebinds.
		log.Warn("glyph service unavailable at startup", "error", initErr)
		sessions.ForceReconnect()
	} else {
		log.Info("bound to glyph service", "socket", cfg.Hardware.SocketPath)
	}

	coord := coordinator.New(sessions)
	coord.SetLogger(log.With("component", "coordinator"))

	// Connect to the local MQTT bus (optional).
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
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled, phone events and battery telemetry unavailable")
	}

	// Battery telemetry feeds the battery visualisation animations.
	var battery telemetry.Source = telemetry.Unavailable{}
	if mqttClient != nil {
		source := telemetry.NewMQTTSource(mqttClient)
		source.SetLogger(log.With("component", "telemetry"))
		if startErr := source.Start(); startErr != nil {
			return fmt.Errorf("starting battery telemetry: %w", startErr)
		}
		battery = source
	}

	settings := features.NewSettings(cfg)

	engine := animation.New(animation.Deps{
		Submitter: sessions,
		Profile:   profile,
		Settings:  settings,
		Battery:   battery,
		Logger:    log.With("component", "animation"),
	})
	defer func() {
		engine.StopAnimations()
		if offErr := engine.TurnOffAll(); offErr != nil {
			log.Warn("final all-off failed", "error", offErr)
		}
	}()

	// Open the run-history store (optional).
	var store *history.Store
	var db *database.DB
	if cfg.History.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer func() {
			log.Info("closing history database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		store = history.NewStore(db.DB)
		if initErr := store.Init(ctx); initErr != nil {
			return fmt.Errorf("initialising history schema: %w", initErr)
		}
		log.Info("run history enabled", "path", cfg.History.Path)

		// Record session transitions.
		sessions.AddListener(func(state session.State) {
			if recErr := store.RecordSessionEvent(context.Background(), string(state), ""); recErr != nil {
				log.Debug("session history write failed", "error", recErr)
			}
		})
	} else {
		log.Info("run history disabled")
	}

	// Control API server.
	var apiHistory api.History
	if store != nil {
		apiHistory = store
	}
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log.With("component", "api"),
		Sessions: sessions,
		Glyphs:   engine,
		Lock:     coord,
		History:  apiHistory,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Fan run lifecycle events out to the event stream and run history.
	engine.SetRunListener(func(ev animation.RunEvent) {
		server.BroadcastRunEvent(ev)

		if store == nil || ev.Event == animation.RunStarted {
			return
		}
		run := &history.Run{
			ID:         ev.RunID,
			Animation:  ev.Animation,
			Feature:    string(coord.Owner()),
			DeviceKind: string(kind),
			Outcome:    ev.Event,
			Steps:      ev.Steps,
			StartedAt:  ev.At,
			EndedAt:    ev.At,
		}
		if recErr := store.RecordRun(context.Background(), run); recErr != nil {
			log.Debug("run history write failed", "error", recErr)
		}
	})

	// Event-driven features need the MQTT bus.
	if mqttClient != nil {
		runner := features.NewRunner(features.Deps{
			Lock:       coord,
			Glyphs:     engine,
			Settings:   settings,
			Subscriber: mqttClient,
			Logger:     log.With("component", "features"),
		})
		if startErr := runner.Start(ctx); startErr != nil {
			return fmt.Errorf("starting feature runner: %w", startErr)
		}
	}

	if err := healthCheck(ctx, db, mqttClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. History database (if enabled)
	// 3. Animation stop + all-off
	// 4. MQTT (if enabled)
	// 5. Glyph service binding

	log.Info("glyphd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GLYPHD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GLYPHD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the optional infrastructure connections are healthy.
// The glyph service binding is deliberately excluded: the daemon must stay
// up while the service is down so recovery can rebind.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, server *api.Server) error {
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

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}

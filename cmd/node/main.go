// Package main provides the entrypoint for a fleet node process.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetnode/fleetnode/internal/api"
	"github.com/fleetnode/fleetnode/internal/api/middleware"
	"github.com/fleetnode/fleetnode/internal/auth"
	"github.com/fleetnode/fleetnode/internal/channel"
	"github.com/fleetnode/fleetnode/internal/database"
	"github.com/fleetnode/fleetnode/internal/diagnostics"
	"github.com/fleetnode/fleetnode/internal/param"
	"github.com/fleetnode/fleetnode/internal/supervisor"
	"github.com/fleetnode/fleetnode/internal/telemetry"
	"github.com/fleetnode/fleetnode/internal/transport"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	nodeName := envOrDefault("NODE_NAME", "fleetnode")

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("node", nodeName).
		Str("version", Version).
		Logger()

	log.Info().Str("build_time", BuildTime).Msg("starting fleet node")

	nodeType, err := supervisor.ParseNodeType(envOrDefault("NODE_TYPE", "generic"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid NODE_TYPE")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    nodeName,
		ServiceVersion: Version,
		Environment:    envOrDefault("APP_ENV", "development"),
		OTLPEndpoint:   envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Parameter store
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to parameter store database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("parameter store connected")

	store := param.NewResilientStore(
		param.NewPostgresStore(pool, nodeName),
		param.ResilientStoreConfig{Name: nodeName},
	)

	params := param.NewRegistry()
	params.Register(param.New(param.Config{
		Name:    "heartbeat_interval",
		Type:    param.TypeFloat,
		Default: 10.0,
		Store:   store,
		Options: param.Options{MinValue: f64(1), MaxValue: f64(300), Editable: true},
	}))
	params.Register(param.New(param.Config{
		Name:    "verbose_logging",
		Type:    param.TypeBool,
		Default: false,
		Store:   store,
		Options: param.Options{Editable: true},
	}))

	// Messaging transport
	var tr transport.Transport
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		pst, err := transport.NewPubSubTransport(ctx, transport.PubSubConfig{ProjectID: projectID})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub transport")
		}
		tr = pst
		log.Info().Str("project", projectID).Msg("pubsub transport initialized")
	} else {
		tr = transport.NewMemoryTransport()
		log.Warn().Msg("PUBSUB_PROJECT_ID not set, using in-memory transport")
	}
	defer func() {
		if err := tr.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close transport")
		}
	}()

	// Diagnostics
	var reporter supervisor.Reporter
	if os.Getenv("DIAGNOSTICS_ENABLED") == "true" {
		reporter = diagnostics.NewTransportReporter(tr, os.Getenv("DIAGNOSTICS_TOPIC"), log)
		log.Info().Msg("diagnostics reporter enabled")
	}

	sup, err := supervisor.New(supervisor.Config{
		Name:       nodeName,
		Type:       nodeType,
		Logger:     log,
		Reporter:   reporter,
		Parameters: params,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct node supervisor")
	}

	// Heartbeat channel
	heartbeat := channel.NewPublisher(tr.Publisher(envOrDefault("HEARTBEAT_TOPIC", "fleet-heartbeat")))
	sup.RegisterChannel(heartbeat)
	go heartbeatLoop(ctx, sup, heartbeat)

	// Parameter change watcher
	watchInterval, _ := time.ParseDuration(envOrDefault("PARAM_WATCH_INTERVAL", "30s"))
	go func() {
		if err := sup.WatchParameters(ctx, watchInterval); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("parameter watcher stopped")
		}
	}()

	// Operator tokens on mutating endpoints
	var tokens *auth.TokenService
	if key := os.Getenv("API_TOKEN_KEY"); key != "" {
		tokens = auth.NewTokenService(auth.TokenConfig{SigningKey: key})
	} else {
		log.Warn().Msg("API_TOKEN_KEY not set - control endpoints are unauthenticated")
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:     log,
		Supervisor: sup,
		Store:      store,
		Metrics:    metrics,
		Tokens:     tokens,
	})

	server := &http.Server{
		Addr:         ":" + envOrDefault("APP_PORT", "8080"),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("control API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	_ = sup.SetHealth(supervisor.HealthHealthy, "")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// The process lifecycle owner runs the supervisor's shutdown hook
	// exactly once, here.
	sup.Shutdown()
}

// heartbeatLoop periodically publishes the node's status on the heartbeat
// channel. The interval tracks the heartbeat_interval parameter.
func heartbeatLoop(ctx context.Context, sup *supervisor.Supervisor, pub *channel.Publisher) {
	for {
		interval := 10 * time.Second
		if p, ok := sup.Parameters().Get("heartbeat_interval"); ok {
			if secs, ok := p.Value().(float64); ok && secs > 0 {
				interval = time.Duration(secs * float64(time.Second))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		health, _ := sup.Health()
		payload, err := json.Marshal(map[string]any{
			"node":    sup.Name(),
			"health":  health.String(),
			"enabled": sup.Enabled(),
			"time":    time.Now().UTC(),
		})
		if err != nil {
			continue
		}
		// An inactive channel drops the heartbeat silently, which is
		// exactly the switched-off behaviour we want.
		if err := pub.Publish(ctx, payload); err != nil {
			_ = sup.Log("heartbeat publish failed: "+err.Error(), supervisor.SeverityWarn)
		}
	}
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func f64(v float64) *float64 { return &v }

// Package service wires the switching engine together with its outputs and
// runs it as a long-lived process.
package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openstudio/director-go/internal/conf"
	"github.com/openstudio/director-go/internal/datastore"
	"github.com/openstudio/director-go/internal/director"
	"github.com/openstudio/director-go/internal/events"
	"github.com/openstudio/director-go/internal/logging"
	"github.com/openstudio/director-go/internal/mqtt"
	"github.com/openstudio/director-go/internal/observability"
	"github.com/openstudio/director-go/internal/observability/metrics"
)

const shutdownTimeout = 10 * time.Second

// Realtime runs the switching engine until the process receives SIGINT or
// SIGTERM. Samples arrive over MQTT; switch events flow to the configured
// outputs through the event bus.
func Realtime(settings *conf.Settings) error {
	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	bus := events.NewBus(events.DefaultConfig())

	store := datastore.New(settings)
	if store != nil {
		if err := store.Open(); err != nil {
			return fmt.Errorf("opening datastore: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.Error("failed to close datastore", "error", err)
			}
		}()
		if ms, ok := store.(interface {
			SetMetrics(*metrics.DatastoreMetrics)
		}); ok {
			ms.SetMetrics(m.Datastore)
		}
		bus.RegisterConsumer(datastore.NewEventConsumer(store))
	}

	opts := []director.Option{
		director.WithDataStore(store),
		director.WithEventBus(bus),
		director.WithMetrics(m.Director),
	}

	var mqttClient mqtt.Client
	if settings.MQTT.Enabled {
		mqttClient = mqtt.NewClient(mqtt.ConfigFromSettings(settings), m.MQTT)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mqttClient.Connect(ctx); err != nil {
			// The paho client keeps retrying in the background; the bridge
			// subscriptions are replayed once the broker comes up.
			logging.Warn("initial MQTT connection failed, retrying in background", "error", err)
		}
		cancel()

		opts = append(opts, director.WithSwitchSink(
			mqtt.NewCommandSink(mqttClient, settings.MQTT.Topic, 0)))
	}

	controller := director.New(settings, opts...)

	if mqttClient != nil {
		bridge := mqtt.NewBridge(mqttClient, settings.MQTT.Topic, controller)
		if err := bridge.Start(); err != nil {
			logging.Warn("failed to subscribe to sample topics", "error", err)
		}
		bus.RegisterConsumer(mqtt.NewEventPublisher(mqttClient, settings.MQTT.Topic, 0))
	}

	bus.Start()

	var metricsServer *http.Server
	if settings.Metrics.Enabled {
		mux := http.NewServeMux()
		m.RegisterHandlers(mux)
		metricsServer = &http.Server{
			Addr:              settings.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logging.Info("metrics endpoint listening", "addr", settings.Metrics.Listen)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("metrics server failed", "error", err)
			}
		}()
	}

	logging.Info("director started",
		"name", settings.Main.Name,
		"version", settings.Version,
		"mqtt_enabled", settings.MQTT.Enabled,
		"metrics_enabled", settings.Metrics.Enabled)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logging.Info("shutdown signal received")

	controller.Shutdown()
	bus.Shutdown(shutdownTimeout)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logging.Error("metrics server shutdown failed", "error", err)
		}
	}

	logging.Info("director stopped")
	return nil
}

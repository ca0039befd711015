// Package mqtt provides an abstraction for MQTT client functionality and the
// bridge that feeds broker-delivered samples into the switching engine.
package mqtt

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openstudio/director-go/internal/conf"
	"github.com/openstudio/director-go/internal/logging"
)

// MessageHandler processes a message received on a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	// It returns an error if the connection fails.
	Connect(ctx context.Context) error

	// Publish sends a message to the specified topic on the MQTT broker.
	// It returns an error if the publish operation fails.
	Publish(ctx context.Context, topic string, payload string) error

	// Subscribe registers a handler for the given topic filter.
	Subscribe(topic string, handler MessageHandler) error

	// IsConnected returns true if the client is currently connected to the MQTT broker.
	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Topic             string // base topic, commands and events are published under it
	Retain            bool   // true to retain messages at the broker
	ReconnectCooldown time.Duration
	ReconnectDelay    time.Duration
	// Connection timeouts
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable default values
func DefaultConfig() Config {
	return Config{
		ReconnectCooldown: 5 * time.Second,
		ReconnectDelay:    1 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// ConfigFromSettings builds a client Config from application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	cfg := DefaultConfig()
	cfg.Broker = settings.MQTT.Broker
	cfg.ClientID = settings.MQTT.ClientID
	if cfg.ClientID == "" {
		cfg.ClientID = settings.Main.Name
	}
	cfg.Username = settings.MQTT.Username
	cfg.Password = settings.MQTT.Password
	cfg.Topic = settings.MQTT.Topic
	cfg.Retain = settings.MQTT.Retain
	return cfg
}

var (
	mqttLogger     *slog.Logger
	mqttLoggerOnce sync.Once
)

// getLogger returns the package logger, preferring a rotated file logger and
// falling back to the structured default.
func getLogger() *slog.Logger {
	mqttLoggerOnce.Do(func() {
		fileLogger, _, err := logging.NewFileLogger("logs/mqtt.log", "mqtt", slog.LevelInfo)
		if err == nil {
			mqttLogger = fileLogger
			return
		}
		if structured := logging.ForService("mqtt"); structured != nil {
			mqttLogger = structured
			return
		}
		mqttLogger = slog.Default().With("service", "mqtt")
	})
	return mqttLogger
}

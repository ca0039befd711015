// client.go: paho-backed implementation of the Client interface.
package mqtt

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/openstudio/director-go/internal/errors"
	"github.com/openstudio/director-go/internal/observability/metrics"
)

// client implements the Client interface.
type client struct {
	config          Config
	internalClient  pahomqtt.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	metrics         *metrics.MQTTMetrics

	subMu         sync.Mutex
	subscriptions map[string]MessageHandler
}

// NewClient creates a new MQTT client with the provided configuration.
func NewClient(config Config, m *metrics.MQTTMetrics) Client {
	return &client{
		config:        config,
		metrics:       m,
		subscriptions: make(map[string]MessageHandler),
	}
}

// Connect attempts to establish a connection to the MQTT broker.
// It first resolves the broker's hostname and then attempts to connect.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if since := time.Since(c.lastConnAttempt); since < c.config.ReconnectCooldown {
		return errors.Newf("connection attempt too recent, last attempt was %v ago", since).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Build()
	}
	c.lastConnAttempt = time.Now()

	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("broker", c.config.Broker).
			Build()
	}

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return errors.Newf("failed to resolve hostname %s: %v", host, err).
				Component("mqtt").
				Category(errors.CategoryMQTTConnection).
				Build()
		}
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(c.config.ReconnectDelay)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.internalClient = pahomqtt.NewClient(opts)

	token := c.internalClient.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return errors.Newf("connection timeout after %v", c.config.ConnectTimeout).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("broker", c.config.Broker).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("broker", c.config.Broker).
			Build()
	}

	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(true)
	}
	return nil
}

// Publish sends a message to the specified topic on the MQTT broker.
func (c *client) Publish(ctx context.Context, topic, payload string) error {
	if !c.IsConnected() {
		err := errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
		if c.metrics != nil {
			c.metrics.RecordPublish(0, err)
		}
		return err
	}

	start := time.Now()
	token := c.internalClient.Publish(topic, 0, c.config.Retain, payload)

	timeout := c.config.PublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if !token.WaitTimeout(timeout) {
		err := errors.Newf("publish timeout after %v", timeout).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
		if c.metrics != nil {
			c.metrics.RecordPublish(time.Since(start), err)
		}
		return err
	}
	err := token.Error()
	if c.metrics != nil {
		c.metrics.RecordPublish(time.Since(start), err)
	}
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}
	return nil
}

// Subscribe registers a handler for the given topic filter. Subscriptions
// survive reconnects because onConnect replays them.
func (c *client) Subscribe(topic string, handler MessageHandler) error {
	c.subMu.Lock()
	c.subscriptions[topic] = handler
	c.subMu.Unlock()

	if c.IsConnected() {
		return c.subscribeOne(topic, handler)
	}
	return nil
}

func (c *client) subscribeOne(topic string, handler MessageHandler) error {
	token := c.internalClient.Subscribe(topic, 0, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		if c.metrics != nil {
			c.metrics.MessagesReceived.Inc()
		}
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return errors.Newf("subscribe timeout for topic %s", topic).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("topic", topic).
			Build()
	}
	return nil
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	if c.internalClient != nil && c.internalClient.IsConnected() {
		c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
		if c.metrics != nil {
			c.metrics.UpdateConnectionStatus(false)
		}
	}
}

func (c *client) onConnect(_ pahomqtt.Client) {
	getLogger().Info("connected to MQTT broker", "broker", c.config.Broker)
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(true)
	}

	c.subMu.Lock()
	subs := make(map[string]MessageHandler, len(c.subscriptions))
	for topic, handler := range c.subscriptions {
		subs[topic] = handler
	}
	c.subMu.Unlock()

	for topic, handler := range subs {
		if err := c.subscribeOne(topic, handler); err != nil {
			getLogger().Error("failed to restore subscription", "topic", topic, "error", err)
		}
	}
}

func (c *client) onConnectionLost(_ pahomqtt.Client, err error) {
	getLogger().Warn(fmt.Sprintf("connection to MQTT broker lost: %v", err), "broker", c.config.Broker)
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
		c.metrics.Errors.Inc()
	}
}

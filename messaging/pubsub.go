package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fleet-bridge/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// TopicHandler consumes a decoded inbound message.
type TopicHandler func(topic string, payload []byte)

// PubSubClient wraps the PAHO MQTT client and keeps a topic-filter ->
// handler registry that survives reconnects. Handlers run on the PAHO
// callback goroutine; each invocation is isolated so one failing handler
// cannot stop the others.
type PubSubClient struct {
	client mqtt.Client
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]TopicHandler
	order    []string
	stopped  bool
}

// NewPubSubClient creates an MQTT pub/sub client. The connection is not
// opened until Connect or Start is called.
func NewPubSubClient(cfg *config.Config, logger *slog.Logger) *PubSubClient {
	c := &PubSubClient{
		logger:   logger.With("component", "pubsub_client"),
		handlers: make(map[string][]TopicHandler),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	c.client = mqtt.NewClient(opts)
	return c
}

// newPubSubClientWith wires an existing client, used by tests.
func newPubSubClientWith(client mqtt.Client, logger *slog.Logger) *PubSubClient {
	return &PubSubClient{
		client:   client,
		logger:   logger.With("component", "pubsub_client"),
		handlers: make(map[string][]TopicHandler),
	}
}

// Connect opens the broker connection and blocks until it is established
// or fails.
func (c *PubSubClient) Connect() error {
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// Start opens the connection on a background goroutine. The PAHO network
// loop retries indefinitely, so callers never block on broker availability.
func (c *PubSubClient) Start() {
	go func() {
		if err := c.Connect(); err != nil {
			c.logger.Error("MQTT connection failed", "error", err)
		}
	}()
}

// Stop disconnects from the broker. In-flight handler invocations finish;
// no new ones are dispatched.
func (c *PubSubClient) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	c.logger.Info("MQTT client stopped")
}

// IsConnected reports the broker connection state.
func (c *PubSubClient) IsConnected() bool {
	return c.client.IsConnected()
}

// Subscribe registers a handler for a topic filter. Handlers for the
// same filter run in registration order.
func (c *PubSubClient) Subscribe(topic string, handler TopicHandler) {
	c.mu.Lock()
	if _, exists := c.handlers[topic]; !exists {
		c.order = append(c.order, topic)
	}
	c.handlers[topic] = append(c.handlers[topic], handler)
	c.mu.Unlock()

	if c.client.IsConnected() {
		c.subscribeTopic(topic)
	}
	c.logger.Debug("Subscribed to topic", "topic", topic)
}

// Unsubscribe drops every handler for a topic filter.
func (c *PubSubClient) Unsubscribe(topic string) {
	c.mu.Lock()
	delete(c.handlers, topic)
	for i, t := range c.order {
		if t == topic {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	if c.client.IsConnected() {
		c.client.Unsubscribe(topic)
	}
}

// Publish marshals the message as JSON and publishes it. It fails fast
// when the broker is unreachable; nothing is queued.
func (c *PubSubClient) Publish(topic string, message interface{}) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("cannot publish to %s: MQTT client is not connected", topic)
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", topic, err)
	}

	token := c.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

func (c *PubSubClient) onConnect(client mqtt.Client) {
	c.logger.Info("Connected to MQTT broker, subscribing to topics...")

	c.mu.RLock()
	topics := append([]string(nil), c.order...)
	c.mu.RUnlock()

	for _, topic := range topics {
		c.subscribeTopic(topic)
	}
}

func (c *PubSubClient) onConnectionLost(client mqtt.Client, err error) {
	c.logger.Error("MQTT connection lost", "error", err)
}

func (c *PubSubClient) subscribeTopic(topic string) {
	token := c.client.Subscribe(topic, 1, c.dispatch)
	if token.Wait() && token.Error() != nil {
		c.logger.Error("Failed to subscribe to topic", "topic", topic, "error", token.Error())
		return
	}
}

// dispatch fans an inbound message out to every handler whose filter
// matches the topic. Malformed payloads are dropped here so handlers
// only ever see valid JSON.
func (c *PubSubClient) dispatch(client mqtt.Client, msg mqtt.Message) {
	c.mu.RLock()
	if c.stopped {
		c.mu.RUnlock()
		return
	}
	var matched []TopicHandler
	for _, filter := range c.order {
		if TopicMatches(filter, msg.Topic()) {
			matched = append(matched, c.handlers[filter]...)
		}
	}
	c.mu.RUnlock()

	if !json.Valid(msg.Payload()) {
		c.logger.Warn("Dropping malformed payload", "topic", msg.Topic())
		return
	}

	for _, handler := range matched {
		c.invoke(handler, msg.Topic(), msg.Payload())
	}
}

// invoke runs one handler, recovering a panic so the remaining handlers
// still run.
func (c *PubSubClient) invoke(handler TopicHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panicked", "topic", topic, "panic", r)
		}
	}()
	handler(topic, payload)
}

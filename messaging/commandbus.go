package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fleet-bridge/config"
	"fleet-bridge/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueHandler consumes one delivery from a command-bus queue.
type QueueHandler func(payload []byte)

// CommandBusClient sends commands to robots over a durable topic
// exchange and consumes their responses. The queue -> handler table
// survives reconnects: every exchange, queue, binding and consumer is
// re-declared when the connection comes back.
type CommandBusClient struct {
	url            string
	reconnectDelay time.Duration
	logger         *slog.Logger

	mu        sync.RWMutex
	conn      *amqp.Connection
	channel   *amqp.Channel
	handlers  map[string][]QueueHandler
	connected bool

	done     chan struct{}
	stopOnce sync.Once
}

// NewCommandBusClient creates a command bus client. The connection is
// not opened until Connect or Start is called.
func NewCommandBusClient(cfg *config.Config, logger *slog.Logger) *CommandBusClient {
	return &CommandBusClient{
		url:            cfg.RabbitMQURL,
		reconnectDelay: cfg.RabbitMQReconnectDelay,
		logger:         logger.With("component", "commandbus_client"),
		handlers:       make(map[string][]QueueHandler),
		done:           make(chan struct{}),
	}
}

// Connect dials the broker, declares the exchanges and re-establishes
// every registered consumer.
func (c *CommandBusClient) Connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	for _, exchange := range []string{CommandExchange, ResponseExchange} {
		if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			conn.Close()
			return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
		}
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.connected = true
	queues := make([]string, 0, len(c.handlers))
	for queue := range c.handlers {
		queues = append(queues, queue)
	}
	c.mu.Unlock()

	for _, queue := range queues {
		if err := c.setupConsumer(queue); err != nil {
			c.logger.Error("Failed to set up consumer", "queue", queue, "error", err)
		}
	}

	c.logger.Info("Connected to RabbitMQ")
	return nil
}

// Start runs the connection loop on a background goroutine, reconnecting
// on a fixed backoff until Stop is called.
func (c *CommandBusClient) Start() {
	go c.run()
}

func (c *CommandBusClient) run() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.mu.RLock()
		connected := c.connected
		conn := c.conn
		c.mu.RUnlock()

		if !connected {
			if err := c.Connect(); err != nil {
				c.logger.Warn("RabbitMQ connection failed, retrying",
					"delay", c.reconnectDelay, "error", err)
				select {
				case <-c.done:
					return
				case <-time.After(c.reconnectDelay):
				}
				continue
			}
			c.mu.RLock()
			conn = c.conn
			c.mu.RUnlock()
		}

		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-c.done:
			return
		case err := <-closed:
			c.logger.Error("RabbitMQ connection closed", "error", err)
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
		}
	}
}

// Stop closes the connection. Stopping an already-disconnected client is
// not an error.
func (c *CommandBusClient) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil && !c.channel.IsClosed() {
		c.channel.Close()
	}
	if c.conn != nil && !c.conn.IsClosed() {
		c.conn.Close()
	}
	c.connected = false
	c.logger.Info("RabbitMQ client stopped")
}

// IsConnected reports the broker connection state.
func (c *CommandBusClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Subscribe registers a handler for a queue. The consumer is declared
// immediately when connected, or on the next (re)connect otherwise.
func (c *CommandBusClient) Subscribe(queue string, handler QueueHandler) {
	c.mu.Lock()
	first := len(c.handlers[queue]) == 0
	c.handlers[queue] = append(c.handlers[queue], handler)
	connected := c.connected
	c.mu.Unlock()

	if first && connected {
		if err := c.setupConsumer(queue); err != nil {
			c.logger.Error("Failed to set up consumer", "queue", queue, "error", err)
		}
	}
	c.logger.Debug("Subscribed to queue", "queue", queue)
}

// SendCommand publishes a command addressed to one robot. Messages are
// marked persistent so they survive a broker restart. Success means the
// broker accepted the message, not that the robot executed it.
func (c *CommandBusClient) SendCommand(robotID string, command *models.Command) (bool, error) {
	c.mu.RLock()
	connected := c.connected
	channel := c.channel
	c.mu.RUnlock()

	if !connected || channel == nil {
		return false, fmt.Errorf("cannot send command: RabbitMQ client is not connected")
	}

	envelope := models.CommandEnvelope{
		CommandID:   command.CommandID,
		RobotID:     robotID,
		CommandType: command.CommandType,
		Parameters:  command.Parameters,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return false, fmt.Errorf("failed to marshal command %s: %w", command.CommandID, err)
	}

	err = channel.PublishWithContext(context.Background(),
		CommandExchange, CommandRoutingKey(robotID), false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    command.CommandID,
			Timestamp:    time.Now().UTC(),
			Body:         payload,
		})
	if err != nil {
		return false, fmt.Errorf("failed to publish command to robot %s: %w", robotID, err)
	}

	c.logger.Info("Command sent to robot", "robot_id", robotID,
		"command_id", command.CommandID, "command_type", command.CommandType)
	return true, nil
}

func (c *CommandBusClient) setupConsumer(queue string) error {
	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()
	if channel == nil {
		return fmt.Errorf("no channel available")
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := channel.QueueBind(queue, queue, ResponseExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}

	deliveries, err := channel.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %s: %w", queue, err)
	}

	go func() {
		for delivery := range deliveries {
			c.deliver(queue, delivery)
		}
	}()

	c.logger.Info("Consumer established", "queue", queue)
	return nil
}

// deliver runs the queue's handlers against one message. A panicking
// handler is logged, the remaining handlers still run, and the message
// is acknowledged either way so the consume loop never dies.
func (c *CommandBusClient) deliver(queue string, delivery amqp.Delivery) {
	c.mu.RLock()
	handlers := append([]QueueHandler(nil), c.handlers[queue]...)
	c.mu.RUnlock()

	for _, handler := range handlers {
		c.invoke(queue, handler, delivery.Body)
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.Error("Failed to ack delivery", "queue", queue, "error", err)
	}
}

func (c *CommandBusClient) invoke(queue string, handler QueueHandler, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Queue handler panicked", "queue", queue, "panic", r)
		}
	}()
	handler(payload)
}

package messaging

import (
	"fmt"
	"log/slog"

	"fleet-bridge/models"
)

// Service owns both broker clients and binds every subscription to the
// MessageHandler. It is the single messaging entry point the rest of
// the application talks to.
type Service struct {
	pubsub  *PubSubClient
	bus     *CommandBusClient
	handler *MessageHandler
	logger  *slog.Logger
}

func NewService(pubsub *PubSubClient, bus *CommandBusClient, handler *MessageHandler, logger *slog.Logger) *Service {
	return &Service{
		pubsub:  pubsub,
		bus:     bus,
		handler: handler,
		logger:  logger.With("component", "messaging_service"),
	}
}

// Start registers every subscription on both transports and brings the
// connections up. Registration happens before the connect so that a
// reconnect always restores the full set.
func (s *Service) Start() error {
	for _, topic := range SubscribedTopics {
		s.pubsub.Subscribe(topic, s.handler.HandleMessage)
	}
	s.bus.Subscribe(QueueCommandResponses, s.handler.HandleCommandResult)
	s.bus.Subscribe(QueueTelemetryData, s.handler.HandleTelemetryData)

	if err := s.pubsub.Connect(); err != nil {
		return fmt.Errorf("connect pubsub: %w", err)
	}
	s.bus.Start()

	s.logger.Info("Messaging service started",
		"topics", len(SubscribedTopics),
		"queues", 2)
	return nil
}

// SendCommandToRobot publishes a command envelope to the robot's queue.
// It reports delivery acceptance and never panics the caller.
func (s *Service) SendCommandToRobot(robotID string, command *models.Command) bool {
	ok, err := s.bus.SendCommand(robotID, command)
	if err != nil {
		s.logger.Error("Failed to send command",
			"robot_id", robotID, "command_id", command.CommandID, "error", err)
		return false
	}
	return ok
}

// Publish forwards a message to the pub/sub transport. Failures are
// logged and swallowed; outbound notifications are fire and forget.
func (s *Service) Publish(topic string, message interface{}) {
	if err := s.pubsub.Publish(topic, message); err != nil {
		s.logger.Warn("Failed to publish message", "topic", topic, "error", err)
	}
}

// Stop shuts both transports down. Safe to call more than once.
func (s *Service) Stop() {
	s.pubsub.Stop()
	s.bus.Stop()
	s.logger.Info("Messaging service stopped")
}

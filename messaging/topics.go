package messaging

import (
	"fmt"
	"strings"
)

// MQTT topic namespace (robot -> backend). Subscriptions use a
// single-level wildcard for the robot-id segment.
const (
	TopicRobotHeartbeat     = "robots/+/heartbeat"
	TopicRobotStatus        = "robots/+/status"
	TopicRobotTelemetry     = "robots/+/telemetry"
	TopicRobotCommandResult = "robots/+/command_result"
	TopicRobotAlert         = "robots/+/alert"
	TopicRobotStep          = "robots/+/step"
	TopicRobotLocation      = "robot/+/location"
	TopicComponentStatus    = "robot/+/component/status"
	TopicActionUpdate       = "robot/+/action/update"
)

// SubscribedTopics lists every inbound topic pattern the pipeline consumes.
var SubscribedTopics = []string{
	TopicRobotHeartbeat,
	TopicRobotStatus,
	TopicRobotTelemetry,
	TopicRobotCommandResult,
	TopicRobotAlert,
	TopicRobotStep,
	TopicRobotLocation,
	TopicComponentStatus,
	TopicActionUpdate,
}

// Command bus addressing.
const (
	CommandExchange  = "robot.commands"
	ResponseExchange = "robot.responses"

	QueueCommandResponses = "response.commands"
	QueueTelemetryData    = "telemetry.data"
)

// CommandRoutingKey addresses a command to one robot on the command exchange.
func CommandRoutingKey(robotID string) string {
	return fmt.Sprintf("robot.%s", robotID)
}

// HeartbeatAckTopic is where the heartbeat acknowledgement for a robot
// is published.
func HeartbeatAckTopic(robotID string) string {
	return fmt.Sprintf("robots/%s/heartbeat/ack", robotID)
}

// TopicMatches reports whether an MQTT topic filter matches a concrete
// topic. Supports the single-level (+) and multi-level (#) wildcards.
func TopicMatches(filter, topic string) bool {
	filterParts := strings.Split(filter, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range filterParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}
	return len(filterParts) == len(topicParts)
}

// SplitRobotTopic extracts the robot id and message kind from an inbound
// topic of the form robots/{robot_id}/{kind} or robot/{robot_id}/{kind}[/...].
func SplitRobotTopic(topic string) (robotID, kind string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[1], parts[2], true
}

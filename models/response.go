package models

// REST response payloads mirrored from the original robot-facing API.

// RobotConfig is handed to a robot at registration so it knows where to
// publish and how often.
type RobotConfig struct {
	HeartbeatInterval int               `json:"heartbeat_interval"`
	TelemetryInterval int               `json:"telemetry_interval"`
	MQTTTopics        map[string]string `json:"mqtt_topics"`
}

// RegisterResponse acknowledges a registration.
type RegisterResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	RobotID     string       `json:"robot_id"`
	RobotConfig *RobotConfig `json:"robot_config,omitempty"`
}

// HeartbeatResponse acknowledges a heartbeat and tells the robot whether
// commands are waiting for it.
type HeartbeatResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	CommandsPending bool   `json:"commands_pending"`
}

// TelemetryBatchResponse acknowledges a telemetry batch.
type TelemetryBatchResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	RecordsReceived int    `json:"records_received"`
}

// CommandResultResponse acknowledges a command result.
type CommandResultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AlertResponse acknowledges an alert.
type AlertResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PendingCommand is one entry of a poll response.
type PendingCommand struct {
	CommandID   string      `json:"command_id"`
	CommandType CommandType `json:"command_type"`
	Parameters  JSON        `json:"parameters,omitempty"`
}

// PollCommandsResponse lists a robot's pending commands.
type PollCommandsResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Commands []PendingCommand `json:"commands"`
}

package models

// Inbound message payloads carried over MQTT and the command bus. Field
// names match what the robots send; the handlers tolerate missing
// optional fields.

// RobotStatusMessage is the heartbeat / status payload published on
// robots/{robot_id}/heartbeat and robots/{robot_id}/status.
type RobotStatusMessage struct {
	RobotID       string `json:"robot_id,omitempty"`
	Status        string `json:"status"`
	LastSeen      string `json:"last_seen,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
	HealthMetrics JSON   `json:"health_metrics,omitempty"`
	Location      JSON   `json:"location,omitempty"`
}

// LocationMessage is published on robot/{robot_id}/location.
type LocationMessage struct {
	RobotID   string    `json:"robot_id"`
	Location  []float64 `json:"location"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// ComponentStatusMessage is published on robot/{robot_id}/component/status.
type ComponentStatusMessage struct {
	ComponentID    string `json:"component_id"`
	Status         string `json:"status"`
	DiagnosisState string `json:"diagnosis_state,omitempty"`
	Parameters     JSON   `json:"parameters,omitempty"`
}

// ActionStatusMessage is published on robot/{robot_id}/action/update.
type ActionStatusMessage struct {
	ActionID string `json:"action_id"`
	Status   string `json:"status"`
	Result   JSON   `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// StepStatusMessage is published on robots/{robot_id}/step.
type StepStatusMessage struct {
	StepID        string  `json:"step_id"`
	Status        string  `json:"status"`
	Result        JSON    `json:"result,omitempty"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"execution_time,omitempty"`
}

// CommandResultMessage arrives on robots/{robot_id}/command_result and on
// the command-bus response queue.
type CommandResultMessage struct {
	RobotID       string  `json:"robot_id,omitempty"`
	CommandID     string  `json:"command_id"`
	Status        string  `json:"status"`
	Result        JSON    `json:"result,omitempty"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"execution_time,omitempty"`
}

// TelemetrySample is one entry of a telemetry batch.
type TelemetrySample struct {
	Timestamp string `json:"timestamp,omitempty"`
	Data      JSON   `json:"data"`
}

// TelemetryMessage is published on robots/{robot_id}/telemetry.
type TelemetryMessage struct {
	RobotID string            `json:"robot_id,omitempty"`
	Data    []TelemetrySample `json:"data"`
}

// AlertMessage is published on robots/{robot_id}/alert.
type AlertMessage struct {
	RobotID   string `json:"robot_id,omitempty"`
	AlertType string `json:"alert_type,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
	Details   JSON   `json:"details,omitempty"`
}

// HeartbeatAck is published back to the robot on
// robots/{robot_id}/heartbeat/ack after a heartbeat is processed.
type HeartbeatAck struct {
	RobotID         string `json:"robot_id"`
	CommandsPending bool   `json:"commands_pending"`
}

// CommandEnvelope is the payload sent to a robot on the command bus.
type CommandEnvelope struct {
	CommandID   string      `json:"command_id"`
	RobotID     string      `json:"robot_id"`
	CommandType CommandType `json:"command_type"`
	Parameters  JSON        `json:"parameters,omitempty"`
}

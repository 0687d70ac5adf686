package models

// REST request payloads. Field names and optionality mirror what the
// robots send on the wire.

// RegisterRequest registers a new robot or re-registers an existing one.
type RegisterRequest struct {
	RobotID         string            `json:"robot_id"`
	RobotName       string            `json:"robot_name"`
	RobotIPAddress  string            `json:"robot_ip_address,omitempty"`
	RobotPort       int               `json:"robot_port,omitempty"`
	Version         string            `json:"version,omitempty"`
	SoftwareVersion string            `json:"software_version,omitempty"`
	Capabilities    []RobotCapability `json:"capabilities,omitempty"`
	Location        JSON              `json:"location,omitempty"`
	Metadata        JSON              `json:"metadata,omitempty"`
}

// HeartbeatRequest is the synchronous twin of RobotStatusMessage.
type HeartbeatRequest struct {
	RobotID     string `json:"robot_id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp,omitempty"`
	QuickHealth JSON   `json:"quick_health,omitempty"`
	Location    JSON   `json:"location,omitempty"`
}

// TelemetryBatchRequest carries a batch of telemetry samples.
type TelemetryBatchRequest struct {
	RobotID string            `json:"robot_id"`
	Data    []TelemetrySample `json:"data"`
}

// CommandResultRequest reports the terminal result of a command.
type CommandResultRequest struct {
	RobotID       string  `json:"robot_id,omitempty"`
	CommandID     string  `json:"command_id"`
	Status        string  `json:"status"`
	Result        JSON    `json:"result,omitempty"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"execution_time,omitempty"`
}

// AlertRequest reports an abnormal event.
type AlertRequest struct {
	RobotID   string `json:"robot_id"`
	AlertType string `json:"alert_type,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
	Details   JSON   `json:"details,omitempty"`
}

// DispatchCommandRequest asks the backend to send a command to a robot.
type DispatchCommandRequest struct {
	CommandType string `json:"command_type"`
	Parameters  JSON   `json:"parameters,omitempty"`
}

// CreateComponentRequest creates a component under a robot.
type CreateComponentRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Status       string `json:"status,omitempty"`
	Capabilities JSON   `json:"capabilities,omitempty"`
	Parameters   JSON   `json:"parameters,omitempty"`
	Metadata     JSON   `json:"metadata,omitempty"`
}

// UpdateComponentRequest partially patches a component.
type UpdateComponentRequest struct {
	Name           *string `json:"name,omitempty"`
	Status         *string `json:"status,omitempty"`
	DiagnosisState *string `json:"diagnosis_state,omitempty"`
	Parameters     JSON    `json:"parameters,omitempty"`
	HealthMetrics  JSON    `json:"health_metrics,omitempty"`
	Metadata       JSON    `json:"metadata,omitempty"`
}

// CreateStepRequest is one planned step inside CreateActionRequest.
type CreateStepRequest struct {
	Sequence   int    `json:"sequence"`
	Command    string `json:"command"`
	Parameters JSON   `json:"parameters,omitempty"`
}

// CreateActionRequest creates an action with its step plan.
type CreateActionRequest struct {
	Name       string              `json:"name"`
	Type       string              `json:"type"`
	Parameters JSON                `json:"parameters,omitempty"`
	Steps      []CreateStepRequest `json:"steps,omitempty"`
}

package models

import "time"

// Command is an instruction dispatched to a robot over the command bus,
// tracked to exactly one terminal result.
type Command struct {
	CommandID     string      `gorm:"primaryKey" json:"command_id"`
	RobotID       string      `gorm:"index" json:"robot_id"`
	CommandType   CommandType `json:"command_type"`
	Parameters    JSON        `json:"parameters,omitempty"`
	Status        ExecStatus  `gorm:"default:PENDING" json:"status"`
	Result        JSON        `json:"result,omitempty"`
	Error         string      `json:"error,omitempty"`
	ExecutionTime float64     `json:"execution_time,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

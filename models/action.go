package models

import "time"

// Action is a unit of work assigned to a component, composed of ordered
// steps. Its status is monotonic: once terminal it never changes except
// by explicit override through the API.
type Action struct {
	ActionID      string     `gorm:"primaryKey" json:"action_id"`
	ComponentID   string     `gorm:"index" json:"component_id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Status        ExecStatus `gorm:"default:PENDING" json:"status"`
	Parameters    JSON       `json:"parameters,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Result        JSON       `json:"result,omitempty"`
	Error         string     `json:"error,omitempty"`
	ExecutionTime float64    `json:"execution_time,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Step is the smallest unit of executable work within an action. The
// sequence number is unique per action and defines execution order.
type Step struct {
	StepID        string     `gorm:"primaryKey" json:"step_id"`
	ActionID      string     `gorm:"index" json:"action_id"`
	Sequence      int        `json:"sequence"`
	Command       string     `json:"command"`
	Parameters    JSON       `json:"parameters,omitempty"`
	Status        ExecStatus `gorm:"default:PENDING" json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Result        JSON       `json:"result,omitempty"`
	Error         string     `json:"error,omitempty"`
	ExecutionTime float64    `json:"execution_time,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

package models

import "time"

// Component is a named subsystem of a robot (sensor, actuator, ...)
// with its own health and diagnosis state.
type Component struct {
	ComponentID     string          `gorm:"primaryKey" json:"component_id"`
	RobotID         string          `gorm:"index" json:"robot_id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Status          ComponentStatus `gorm:"default:INACTIVE" json:"status"`
	DiagnosisState  DiagnosisState  `gorm:"default:UNKNOWN" json:"diagnosis_state"`
	Capabilities    JSON            `json:"capabilities,omitempty"`
	Parameters      JSON            `json:"parameters,omitempty"`
	LastMaintenance *time.Time      `json:"last_maintenance,omitempty"`
	NextMaintenance *time.Time      `json:"next_maintenance,omitempty"`
	HealthMetrics   JSON            `json:"health_metrics,omitempty"`
	Metadata        JSON            `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

package models

import "time"

// Alert is an append-only notification record. Alerts reference a robot
// but have their own lifecycle and are never mutated.
type Alert struct {
	AlertID   string        `gorm:"primaryKey" json:"alert_id"`
	RobotID   string        `gorm:"index" json:"robot_id"`
	Type      AlertType     `json:"type"`
	Severity  AlertSeverity `gorm:"default:INFO" json:"severity"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Details   JSON          `json:"details,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

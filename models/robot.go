package models

import "time"

// RobotCapability describes one capability a robot advertises at
// registration time.
type RobotCapability struct {
	Name      string `json:"name"`
	Supported bool   `json:"supported"`
	Details   JSON   `json:"details,omitempty"`
}

// Robot is the canonical robot entity. The ID is assigned by the robot
// itself at registration and never changes.
type Robot struct {
	RobotID         string      `gorm:"primaryKey" json:"robot_id"`
	Name            string      `json:"name"`
	IPAddress       string      `json:"ip_address"`
	Port            int         `json:"port"`
	Version         string      `json:"version"`
	SoftwareVersion string      `json:"software_version"`
	Capabilities    JSON        `json:"capabilities"`
	Status          RobotStatus `gorm:"default:OFFLINE" json:"status"`
	LastSeen        time.Time   `json:"last_seen"`
	HealthMetrics   JSON        `json:"health_metrics,omitempty"`
	CurrentLocation JSON        `json:"current_location,omitempty"`
	Metadata        JSON        `json:"metadata,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TelemetryRecord is one telemetry sample reported by a robot.
type TelemetryRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RobotID   string    `gorm:"index" json:"robot_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      JSON      `json:"data"`
}

// LocationRecord is one reported position of a robot, appended on every
// location update message.
type LocationRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RobotID   string    `gorm:"index" json:"robot_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

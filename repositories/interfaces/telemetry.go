package interfaces

import "fleet-bridge/models"

// TelemetryRepositoryInterface defines persistence operations for
// telemetry records.
type TelemetryRepositoryInterface interface {
	CreateBatch(records []models.TelemetryRecord) error
	ListByRobot(robotID string, limit, offset int) ([]models.TelemetryRecord, error)
}

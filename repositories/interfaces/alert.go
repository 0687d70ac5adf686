package interfaces

import "fleet-bridge/models"

// AlertRepositoryInterface defines persistence operations for alerts.
// Alerts are append-only.
type AlertRepositoryInterface interface {
	Create(alert *models.Alert) error
	ListByRobot(robotID string, limit, offset int) ([]models.Alert, error)
}

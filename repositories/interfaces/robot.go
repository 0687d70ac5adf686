package interfaces

import "fleet-bridge/models"

// RobotRepositoryInterface defines persistence operations for robots and
// their location history.
type RobotRepositoryInterface interface {
	Create(robot *models.Robot) error
	Upsert(robot *models.Robot) error
	GetByID(robotID string) (*models.Robot, error)
	List(limit, offset int) ([]models.Robot, error)
	Update(robotID string, updates map[string]interface{}) error
	Delete(robotID string) error
	AddLocation(record *models.LocationRecord) error
	LatestLocation(robotID string) (*models.LocationRecord, error)
}

package interfaces

import "fleet-bridge/models"

// CommandRepositoryInterface defines persistence operations for commands.
type CommandRepositoryInterface interface {
	Create(command *models.Command) error
	GetByID(commandID string) (*models.Command, error)
	ListByRobot(robotID string, limit, offset int) ([]models.Command, error)
	ListPending(robotID string) ([]models.Command, error)
	HasPending(robotID string) (bool, error)
	Update(commandID string, updates map[string]interface{}) error
	UpdateWithLock(commandID string, mutate func(*models.Command) (map[string]interface{}, error)) error
}

package interfaces

import "fleet-bridge/models"

// ActionRepositoryInterface defines persistence operations for actions.
// UpdateWithLock runs the mutate function against the current row inside
// one transaction holding a row lock; returning a nil update map skips
// the write. Delete cascades to the action's steps.
type ActionRepositoryInterface interface {
	Create(action *models.Action) error
	GetByID(actionID string) (*models.Action, error)
	ListByComponent(componentID string) ([]models.Action, error)
	Update(actionID string, updates map[string]interface{}) error
	UpdateWithLock(actionID string, mutate func(*models.Action) (map[string]interface{}, error)) error
	Delete(actionID string) error
}

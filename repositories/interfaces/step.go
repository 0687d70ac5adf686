package interfaces

import "fleet-bridge/models"

// StepRepositoryInterface defines persistence operations for steps.
// ListByAction returns steps ordered by sequence number.
type StepRepositoryInterface interface {
	Create(step *models.Step) error
	CreateBatch(steps []models.Step) error
	GetByID(stepID string) (*models.Step, error)
	ListByAction(actionID string) ([]models.Step, error)
	Update(stepID string, updates map[string]interface{}) error
	UpdateWithLock(stepID string, mutate func(*models.Step) (map[string]interface{}, error)) error
}

package interfaces

import "fleet-bridge/models"

// ComponentRepositoryInterface defines persistence operations for
// components. Delete cascades to the component's actions and steps.
type ComponentRepositoryInterface interface {
	Create(component *models.Component) error
	GetByID(componentID string) (*models.Component, error)
	ListByRobot(robotID string) ([]models.Component, error)
	Update(componentID string, updates map[string]interface{}) error
	Delete(componentID string) error
}

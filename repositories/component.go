package repositories

import (
	"time"

	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/repositories/interfaces"

	"gorm.io/gorm"
)

// ComponentRepository implements ComponentRepositoryInterface on GORM.
type ComponentRepository struct {
	db *gorm.DB
}

// NewComponentRepository creates a new instance of ComponentRepository.
func NewComponentRepository(db *gorm.DB) interfaces.ComponentRepositoryInterface {
	return &ComponentRepository{db: db}
}

func (cr *ComponentRepository) Create(component *models.Component) error {
	if err := cr.db.Create(component).Error; err != nil {
		return base.WrapDBError("create", "component", err)
	}
	return nil
}

func (cr *ComponentRepository) GetByID(componentID string) (*models.Component, error) {
	var component models.Component
	err := cr.db.Where("component_id = ?", componentID).First(&component).Error
	if err != nil {
		return nil, base.HandleDBError("get", "component", componentID, err)
	}
	return &component, nil
}

func (cr *ComponentRepository) ListByRobot(robotID string) ([]models.Component, error) {
	var components []models.Component
	err := cr.db.Where("robot_id = ?", robotID).Order("created_at ASC").Find(&components).Error
	if err != nil {
		return nil, base.WrapDBError("list", "component", err)
	}
	return components, nil
}

func (cr *ComponentRepository) Update(componentID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := cr.db.Model(&models.Component{}).Where("component_id = ?", componentID).Updates(updates)
	if result.Error != nil {
		return base.WrapDBError("update", "component", result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError("component", componentID)
	}
	return nil
}

// Delete removes the component together with its actions and their steps.
func (cr *ComponentRepository) Delete(componentID string) error {
	err := cr.db.Transaction(func(tx *gorm.DB) error {
		var actionIDs []string
		if err := tx.Model(&models.Action{}).Where("component_id = ?", componentID).
			Pluck("action_id", &actionIDs).Error; err != nil {
			return err
		}
		if len(actionIDs) > 0 {
			if err := tx.Where("action_id IN ?", actionIDs).Delete(&models.Step{}).Error; err != nil {
				return err
			}
			if err := tx.Where("action_id IN ?", actionIDs).Delete(&models.Action{}).Error; err != nil {
				return err
			}
		}
		result := tx.Where("component_id = ?", componentID).Delete(&models.Component{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return base.NewEntityNotFoundError("component", componentID)
		}
		return nil
	})
	if err != nil {
		if base.IsEntityNotFound(err) {
			return err
		}
		return base.WrapDBError("delete", "component", err)
	}
	return nil
}

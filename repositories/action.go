package repositories

import (
	"time"

	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/repositories/interfaces"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActionRepository implements ActionRepositoryInterface on GORM.
type ActionRepository struct {
	db *gorm.DB
}

// NewActionRepository creates a new instance of ActionRepository.
func NewActionRepository(db *gorm.DB) interfaces.ActionRepositoryInterface {
	return &ActionRepository{db: db}
}

func (ar *ActionRepository) Create(action *models.Action) error {
	if err := ar.db.Create(action).Error; err != nil {
		return base.WrapDBError("create", "action", err)
	}
	return nil
}

func (ar *ActionRepository) GetByID(actionID string) (*models.Action, error) {
	var action models.Action
	err := ar.db.Where("action_id = ?", actionID).First(&action).Error
	if err != nil {
		return nil, base.HandleDBError("get", "action", actionID, err)
	}
	return &action, nil
}

func (ar *ActionRepository) ListByComponent(componentID string) ([]models.Action, error) {
	var actions []models.Action
	err := ar.db.Where("component_id = ?", componentID).Order("created_at ASC").Find(&actions).Error
	if err != nil {
		return nil, base.WrapDBError("list", "action", err)
	}
	return actions, nil
}

func (ar *ActionRepository) Update(actionID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := ar.db.Model(&models.Action{}).Where("action_id = ?", actionID).Updates(updates)
	if result.Error != nil {
		return base.WrapDBError("update", "action", result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError("action", actionID)
	}
	return nil
}

// UpdateWithLock applies mutate to the current row under a row lock so
// concurrent status transitions for the same action serialize.
func (ar *ActionRepository) UpdateWithLock(actionID string, mutate func(*models.Action) (map[string]interface{}, error)) error {
	err := ar.db.Transaction(func(tx *gorm.DB) error {
		var action models.Action
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("action_id = ?", actionID).First(&action).Error
		if err != nil {
			return base.HandleDBError("lock", "action", actionID, err)
		}
		updates, err := mutate(&action)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()
		return tx.Model(&models.Action{}).Where("action_id = ?", actionID).Updates(updates).Error
	})
	if err != nil {
		if base.IsEntityNotFound(err) {
			return err
		}
		return base.WrapDBError("update", "action", err)
	}
	return nil
}

// Delete removes the action together with its steps.
func (ar *ActionRepository) Delete(actionID string) error {
	err := ar.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("action_id = ?", actionID).Delete(&models.Step{}).Error; err != nil {
			return err
		}
		result := tx.Where("action_id = ?", actionID).Delete(&models.Action{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return base.NewEntityNotFoundError("action", actionID)
		}
		return nil
	})
	if err != nil {
		if base.IsEntityNotFound(err) {
			return err
		}
		return base.WrapDBError("delete", "action", err)
	}
	return nil
}

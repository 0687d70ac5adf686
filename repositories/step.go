package repositories

import (
	"time"

	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/repositories/interfaces"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StepRepository implements StepRepositoryInterface on GORM.
type StepRepository struct {
	db *gorm.DB
}

// NewStepRepository creates a new instance of StepRepository.
func NewStepRepository(db *gorm.DB) interfaces.StepRepositoryInterface {
	return &StepRepository{db: db}
}

func (sr *StepRepository) Create(step *models.Step) error {
	if err := sr.db.Create(step).Error; err != nil {
		return base.WrapDBError("create", "step", err)
	}
	return nil
}

func (sr *StepRepository) CreateBatch(steps []models.Step) error {
	if len(steps) == 0 {
		return nil
	}
	if err := sr.db.Create(&steps).Error; err != nil {
		return base.WrapDBError("create", "step", err)
	}
	return nil
}

func (sr *StepRepository) GetByID(stepID string) (*models.Step, error) {
	var step models.Step
	err := sr.db.Where("step_id = ?", stepID).First(&step).Error
	if err != nil {
		return nil, base.HandleDBError("get", "step", stepID, err)
	}
	return &step, nil
}

// ListByAction returns the action's steps in sequence order.
func (sr *StepRepository) ListByAction(actionID string) ([]models.Step, error) {
	var steps []models.Step
	err := sr.db.Where("action_id = ?", actionID).Order("sequence ASC").Find(&steps).Error
	if err != nil {
		return nil, base.WrapDBError("list", "step", err)
	}
	return steps, nil
}

func (sr *StepRepository) Update(stepID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := sr.db.Model(&models.Step{}).Where("step_id = ?", stepID).Updates(updates)
	if result.Error != nil {
		return base.WrapDBError("update", "step", result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError("step", stepID)
	}
	return nil
}

// UpdateWithLock applies mutate to the current row under a row lock.
func (sr *StepRepository) UpdateWithLock(stepID string, mutate func(*models.Step) (map[string]interface{}, error)) error {
	err := sr.db.Transaction(func(tx *gorm.DB) error {
		var step models.Step
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("step_id = ?", stepID).First(&step).Error
		if err != nil {
			return base.HandleDBError("lock", "step", stepID, err)
		}
		updates, err := mutate(&step)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()
		return tx.Model(&models.Step{}).Where("step_id = ?", stepID).Updates(updates).Error
	})
	if err != nil {
		if base.IsEntityNotFound(err) {
			return err
		}
		return base.WrapDBError("update", "step", err)
	}
	return nil
}

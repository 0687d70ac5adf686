package repositories

import (
	"time"

	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/repositories/interfaces"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommandRepository implements CommandRepositoryInterface on GORM.
type CommandRepository struct {
	db *gorm.DB
}

// NewCommandRepository creates a new instance of CommandRepository.
func NewCommandRepository(db *gorm.DB) interfaces.CommandRepositoryInterface {
	return &CommandRepository{db: db}
}

func (cr *CommandRepository) Create(command *models.Command) error {
	if err := cr.db.Create(command).Error; err != nil {
		return base.WrapDBError("create", "command", err)
	}
	return nil
}

func (cr *CommandRepository) GetByID(commandID string) (*models.Command, error) {
	var command models.Command
	err := cr.db.Where("command_id = ?", commandID).First(&command).Error
	if err != nil {
		return nil, base.HandleDBError("get", "command", commandID, err)
	}
	return &command, nil
}

func (cr *CommandRepository) ListByRobot(robotID string, limit, offset int) ([]models.Command, error) {
	var commands []models.Command
	query := cr.db.Where("robot_id = ?", robotID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&commands).Error; err != nil {
		return nil, base.WrapDBError("list", "command", err)
	}
	return commands, nil
}

func (cr *CommandRepository) ListPending(robotID string) ([]models.Command, error) {
	var commands []models.Command
	err := cr.db.Where("robot_id = ? AND status = ?", robotID, models.ExecStatusPending).
		Order("created_at ASC").Find(&commands).Error
	if err != nil {
		return nil, base.WrapDBError("list", "command", err)
	}
	return commands, nil
}

// HasPending reports whether any command for the robot is still PENDING.
func (cr *CommandRepository) HasPending(robotID string) (bool, error) {
	var count int64
	err := cr.db.Model(&models.Command{}).
		Where("robot_id = ? AND status = ?", robotID, models.ExecStatusPending).
		Count(&count).Error
	if err != nil {
		return false, base.WrapDBError("count", "command", err)
	}
	return count > 0, nil
}

func (cr *CommandRepository) Update(commandID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := cr.db.Model(&models.Command{}).Where("command_id = ?", commandID).Updates(updates)
	if result.Error != nil {
		return base.WrapDBError("update", "command", result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError("command", commandID)
	}
	return nil
}

// UpdateWithLock applies mutate to the current row under a row lock so a
// duplicated result message cannot race its first application.
func (cr *CommandRepository) UpdateWithLock(commandID string, mutate func(*models.Command) (map[string]interface{}, error)) error {
	err := cr.db.Transaction(func(tx *gorm.DB) error {
		var command models.Command
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("command_id = ?", commandID).First(&command).Error
		if err != nil {
			return base.HandleDBError("lock", "command", commandID, err)
		}
		updates, err := mutate(&command)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()
		return tx.Model(&models.Command{}).Where("command_id = ?", commandID).Updates(updates).Error
	})
	if err != nil {
		if base.IsEntityNotFound(err) {
			return err
		}
		return base.WrapDBError("update", "command", err)
	}
	return nil
}

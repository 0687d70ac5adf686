package repositories

import (
	"time"

	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/repositories/interfaces"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RobotRepository implements RobotRepositoryInterface on GORM.
type RobotRepository struct {
	db *gorm.DB
}

// NewRobotRepository creates a new instance of RobotRepository.
func NewRobotRepository(db *gorm.DB) interfaces.RobotRepositoryInterface {
	return &RobotRepository{db: db}
}

func (rr *RobotRepository) Create(robot *models.Robot) error {
	if err := rr.db.Create(robot).Error; err != nil {
		return base.WrapDBError("create", "robot", err)
	}
	return nil
}

// Upsert creates the robot or, when the ID is already registered,
// replaces the registration fields while keeping status history.
func (rr *RobotRepository) Upsert(robot *models.Robot) error {
	err := rr.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "robot_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "ip_address", "port", "version", "software_version",
			"capabilities", "current_location", "metadata", "updated_at",
		}),
	}).Create(robot).Error
	if err != nil {
		return base.WrapDBError("upsert", "robot", err)
	}
	return nil
}

func (rr *RobotRepository) GetByID(robotID string) (*models.Robot, error) {
	var robot models.Robot
	err := rr.db.Where("robot_id = ?", robotID).First(&robot).Error
	if err != nil {
		return nil, base.HandleDBError("get", "robot", robotID, err)
	}
	return &robot, nil
}

func (rr *RobotRepository) List(limit, offset int) ([]models.Robot, error) {
	var robots []models.Robot
	query := rr.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&robots).Error; err != nil {
		return nil, base.WrapDBError("list", "robot", err)
	}
	return robots, nil
}

func (rr *RobotRepository) Update(robotID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := rr.db.Model(&models.Robot{}).Where("robot_id = ?", robotID).Updates(updates)
	if result.Error != nil {
		return base.WrapDBError("update", "robot", result.Error)
	}
	if result.RowsAffected == 0 {
		return base.NewEntityNotFoundError("robot", robotID)
	}
	return nil
}

// Delete removes the robot and everything it owns: components, their
// actions and those actions' steps. Commands and alerts are kept, they
// only reference the robot.
func (rr *RobotRepository) Delete(robotID string) error {
	err := rr.db.Transaction(func(tx *gorm.DB) error {
		var componentIDs []string
		if err := tx.Model(&models.Component{}).Where("robot_id = ?", robotID).
			Pluck("component_id", &componentIDs).Error; err != nil {
			return err
		}
		if len(componentIDs) > 0 {
			var actionIDs []string
			if err := tx.Model(&models.Action{}).Where("component_id IN ?", componentIDs).
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
			if err := tx.Where("robot_id = ?", robotID).Delete(&models.Component{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("robot_id = ?", robotID).Delete(&models.LocationRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("robot_id = ?", robotID).Delete(&models.Robot{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return base.NewEntityNotFoundError("robot", robotID)
		}
		return nil
	})
	if err != nil {
		if base.IsEntityNotFound(err) {
			return err
		}
		return base.WrapDBError("delete", "robot", err)
	}
	return nil
}

func (rr *RobotRepository) AddLocation(record *models.LocationRecord) error {
	if err := rr.db.Create(record).Error; err != nil {
		return base.WrapDBError("create", "location_record", err)
	}
	return nil
}

func (rr *RobotRepository) LatestLocation(robotID string) (*models.LocationRecord, error) {
	var record models.LocationRecord
	err := rr.db.Where("robot_id = ?", robotID).
		Order("timestamp DESC").First(&record).Error
	if err != nil {
		return nil, base.HandleDBError("get", "location_record", robotID, err)
	}
	return &record, nil
}

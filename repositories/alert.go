package repositories

import (
	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/repositories/interfaces"

	"gorm.io/gorm"
)

// AlertRepository implements AlertRepositoryInterface on GORM.
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new instance of AlertRepository.
func NewAlertRepository(db *gorm.DB) interfaces.AlertRepositoryInterface {
	return &AlertRepository{db: db}
}

func (ar *AlertRepository) Create(alert *models.Alert) error {
	if err := ar.db.Create(alert).Error; err != nil {
		return base.WrapDBError("create", "alert", err)
	}
	return nil
}

func (ar *AlertRepository) ListByRobot(robotID string, limit, offset int) ([]models.Alert, error) {
	var alerts []models.Alert
	query := ar.db.Where("robot_id = ?", robotID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&alerts).Error; err != nil {
		return nil, base.WrapDBError("list", "alert", err)
	}
	return alerts, nil
}

package repositories

import (
	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/repositories/interfaces"

	"gorm.io/gorm"
)

// TelemetryRepository implements TelemetryRepositoryInterface on GORM.
type TelemetryRepository struct {
	db *gorm.DB
}

// NewTelemetryRepository creates a new instance of TelemetryRepository.
func NewTelemetryRepository(db *gorm.DB) interfaces.TelemetryRepositoryInterface {
	return &TelemetryRepository{db: db}
}

func (tr *TelemetryRepository) CreateBatch(records []models.TelemetryRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := tr.db.Create(&records).Error; err != nil {
		return base.WrapDBError("create", "telemetry_record", err)
	}
	return nil
}

func (tr *TelemetryRepository) ListByRobot(robotID string, limit, offset int) ([]models.TelemetryRecord, error) {
	var records []models.TelemetryRecord
	query := tr.db.Where("robot_id = ?", robotID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, base.WrapDBError("list", "telemetry_record", err)
	}
	return records, nil
}

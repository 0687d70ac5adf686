package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fleet-bridge/config"
	"fleet-bridge/models"
	"fleet-bridge/repositories/interfaces"
	"fleet-bridge/utils"
)

// LiveStateStore mirrors the hot robot state kept alongside the database.
type LiveStateStore interface {
	SaveRobotStatus(robotID string, status models.RobotStatus, lastSeen time.Time) error
	GetRobotStatus(robotID string) (models.RobotStatus, time.Time, error)
	SaveLocation(record *models.LocationRecord) error
	GetLocation(robotID string) (*models.LocationRecord, error)
}

// RobotService implements robot lifecycle: registration, heartbeat,
// telemetry ingestion, alert ingestion and fleet queries.
type RobotService struct {
	robots    interfaces.RobotRepositoryInterface
	commands  interfaces.CommandRepositoryInterface
	telemetry interfaces.TelemetryRepositoryInterface
	alerts    interfaces.AlertRepositoryInterface
	cache     LiveStateStore // optional
	cfg       *config.Config
	logger    *slog.Logger
}

func NewRobotService(
	robots interfaces.RobotRepositoryInterface,
	commands interfaces.CommandRepositoryInterface,
	telemetry interfaces.TelemetryRepositoryInterface,
	alerts interfaces.AlertRepositoryInterface,
	cache LiveStateStore,
	cfg *config.Config,
	logger *slog.Logger,
) *RobotService {
	return &RobotService{
		robots:    robots,
		commands:  commands,
		telemetry: telemetry,
		alerts:    alerts,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.With("component", "robot_service"),
	}
}

// Register creates or re-registers a robot. Re-registration overwrites
// the registration fields but keeps history, and hands back the broker
// topics and reporting intervals the robot should use.
func (s *RobotService) Register(req *models.RegisterRequest) (*models.RegisterResponse, error) {
	if req.RobotID == "" {
		return nil, fmt.Errorf("robot_id is required")
	}

	robot := &models.Robot{
		RobotID:         req.RobotID,
		Name:            req.RobotName,
		IPAddress:       req.RobotIPAddress,
		Port:            req.RobotPort,
		Version:         req.Version,
		SoftwareVersion: req.SoftwareVersion,
		Capabilities:    models.ToJSON(req.Capabilities),
		Status:          models.RobotStatusOnline,
		LastSeen:        time.Now().UTC(),
		CurrentLocation: req.Location,
		Metadata:        req.Metadata,
	}
	if err := s.robots.Upsert(robot); err != nil {
		return nil, fmt.Errorf("failed to register robot: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SaveRobotStatus(robot.RobotID, robot.Status, robot.LastSeen); err != nil {
			s.logger.Warn("Failed to cache robot status", "robot_id", robot.RobotID, "error", err)
		}
	}

	s.logger.Info("Robot registered", "robot_id", robot.RobotID, "name", robot.Name)
	return &models.RegisterResponse{
		Success: true,
		Message: "Robot registered",
		RobotID: robot.RobotID,
		RobotConfig: &models.RobotConfig{
			HeartbeatInterval: s.cfg.HeartbeatInterval,
			TelemetryInterval: s.cfg.TelemetryInterval,
			MQTTTopics: map[string]string{
				"heartbeat":      fmt.Sprintf("robots/%s/heartbeat", robot.RobotID),
				"status":         fmt.Sprintf("robots/%s/status", robot.RobotID),
				"telemetry":      fmt.Sprintf("robots/%s/telemetry", robot.RobotID),
				"command_result": fmt.Sprintf("robots/%s/command_result", robot.RobotID),
				"alert":          fmt.Sprintf("robots/%s/alert", robot.RobotID),
				"step":           fmt.Sprintf("robots/%s/step", robot.RobotID),
				"heartbeat_ack":  fmt.Sprintf("robots/%s/heartbeat/ack", robot.RobotID),
			},
		},
	}, nil
}

// Heartbeat is the synchronous twin of the heartbeat topic: it patches
// the robot's live fields and reports whether commands are pending.
func (s *RobotService) Heartbeat(req *models.HeartbeatRequest) (*models.HeartbeatResponse, error) {
	robot, err := s.robots.GetByID(req.RobotID)
	if err != nil {
		return nil, err
	}

	status := models.ParseRobotStatus(req.Status)
	lastSeen := time.Now().UTC()

	updates := map[string]interface{}{
		"status":    status,
		"last_seen": lastSeen,
	}
	if len(req.QuickHealth) > 0 {
		updates["health_metrics"] = req.QuickHealth
	}
	if len(req.Location) > 0 {
		updates["current_location"] = req.Location
	}
	if err := s.robots.Update(robot.RobotID, updates); err != nil {
		return nil, fmt.Errorf("failed to update robot: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SaveRobotStatus(robot.RobotID, status, lastSeen); err != nil {
			s.logger.Warn("Failed to cache robot status", "robot_id", robot.RobotID, "error", err)
		}
	}

	pending, err := s.commands.HasPending(robot.RobotID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending commands: %w", err)
	}

	return &models.HeartbeatResponse{
		Success:         true,
		Message:         "Heartbeat received",
		CommandsPending: pending,
	}, nil
}

// IngestTelemetry stores a batch of telemetry samples and reports how
// many records were accepted.
func (s *RobotService) IngestTelemetry(req *models.TelemetryBatchRequest) (*models.TelemetryBatchResponse, error) {
	if _, err := s.robots.GetByID(req.RobotID); err != nil {
		return nil, err
	}

	records := make([]models.TelemetryRecord, 0, len(req.Data))
	for _, sample := range req.Data {
		records = append(records, models.TelemetryRecord{
			RobotID:   req.RobotID,
			Timestamp: parseTimestamp(sample.Timestamp),
			Data:      sample.Data,
		})
	}
	if err := s.telemetry.CreateBatch(records); err != nil {
		return nil, fmt.Errorf("failed to store telemetry: %w", err)
	}

	return &models.TelemetryBatchResponse{
		Success:         true,
		Message:         "Telemetry stored",
		RecordsReceived: len(records),
	}, nil
}

// IngestAlert stores an alert reported over REST.
func (s *RobotService) IngestAlert(req *models.AlertRequest) (*models.AlertResponse, error) {
	if _, err := s.robots.GetByID(req.RobotID); err != nil {
		return nil, err
	}

	alertType := models.AlertTypeOther
	if req.AlertType != "" {
		alertType = models.AlertType(strings.ToUpper(req.AlertType))
	}
	alert := &models.Alert{
		AlertID:   utils.GenerateAlertID(),
		RobotID:   req.RobotID,
		Type:      alertType,
		Severity:  models.ParseAlertSeverity(req.Severity),
		Message:   req.Message,
		Timestamp: parseTimestamp(req.Timestamp),
		Details:   req.Details,
	}
	if err := s.alerts.Create(alert); err != nil {
		return nil, fmt.Errorf("failed to store alert: %w", err)
	}

	s.logger.Info("Alert received", "robot_id", req.RobotID,
		"type", alert.Type, "severity", alert.Severity)
	return &models.AlertResponse{Success: true, Message: "Alert stored"}, nil
}

// GetRobot returns a robot, preferring the cached live status when it is
// fresher than the persisted row.
func (s *RobotService) GetRobot(robotID string) (*models.Robot, error) {
	robot, err := s.robots.GetByID(robotID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if status, lastSeen, err := s.cache.GetRobotStatus(robotID); err == nil && lastSeen.After(robot.LastSeen) {
			robot.Status = status
			robot.LastSeen = lastSeen
		}
	}
	return robot, nil
}

func (s *RobotService) ListRobots(limit, offset int) ([]models.Robot, error) {
	return s.robots.List(limit, offset)
}

// DeleteRobot removes a robot and everything hanging off it.
func (s *RobotService) DeleteRobot(robotID string) error {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return err
	}
	if err := s.robots.Delete(robotID); err != nil {
		return fmt.Errorf("failed to delete robot: %w", err)
	}
	s.logger.Info("Robot deleted", "robot_id", robotID)
	return nil
}

// LatestLocation returns the most recent position, preferring the cache.
func (s *RobotService) LatestLocation(robotID string) (*models.LocationRecord, error) {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if record, err := s.cache.GetLocation(robotID); err == nil && record != nil {
			return record, nil
		}
	}
	return s.robots.LatestLocation(robotID)
}

func (s *RobotService) ListTelemetry(robotID string, limit, offset int) ([]models.TelemetryRecord, error) {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return nil, err
	}
	return s.telemetry.ListByRobot(robotID, limit, offset)
}

func (s *RobotService) ListAlerts(robotID string, limit, offset int) ([]models.Alert, error) {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return nil, err
	}
	return s.alerts.ListByRobot(robotID, limit, offset)
}

package messaging

import (
	"encoding/json"
	"log/slog"
	"time"

	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/repositories/interfaces"
	"fleet-bridge/utils"
)

// Publisher publishes an outbound message on the pub/sub transport.
type Publisher interface {
	Publish(topic string, message interface{}) error
}

// LiveStateCache keeps the last reported robot status and location hot.
type LiveStateCache interface {
	SaveRobotStatus(robotID string, status models.RobotStatus, lastSeen time.Time) error
	SaveLocation(record *models.LocationRecord) error
}

// MessageHandler is the state-reconciliation core: it decodes inbound
// robot messages, resolves them against persisted entity state and
// drives the Robot/Command/Action/Step state machines forward.
//
// Every failure mode (malformed payload, unknown entity, rejected
// transition, persistence error) is logged and dropped; nothing
// propagates to the broker clients' consume loops.
type MessageHandler struct {
	robots     interfaces.RobotRepositoryInterface
	components interfaces.ComponentRepositoryInterface
	actions    interfaces.ActionRepositoryInterface
	steps      interfaces.StepRepositoryInterface
	commands   interfaces.CommandRepositoryInterface
	alerts     interfaces.AlertRepositoryInterface
	telemetry  interfaces.TelemetryRepositoryInterface

	cache     LiveStateCache // optional
	publisher Publisher      // optional
	logger    *slog.Logger
}

// NewMessageHandler wires the handler to its collaborators. cache and
// publisher may be nil; the corresponding side channels are skipped.
func NewMessageHandler(
	robots interfaces.RobotRepositoryInterface,
	components interfaces.ComponentRepositoryInterface,
	actions interfaces.ActionRepositoryInterface,
	steps interfaces.StepRepositoryInterface,
	commands interfaces.CommandRepositoryInterface,
	alerts interfaces.AlertRepositoryInterface,
	telemetry interfaces.TelemetryRepositoryInterface,
	cache LiveStateCache,
	publisher Publisher,
	logger *slog.Logger,
) *MessageHandler {
	return &MessageHandler{
		robots:     robots,
		components: components,
		actions:    actions,
		steps:      steps,
		commands:   commands,
		alerts:     alerts,
		telemetry:  telemetry,
		cache:      cache,
		publisher:  publisher,
		logger:     logger.With("component", "message_handler"),
	}
}

// HandleMessage is the single entry point for topic-addressed messages.
// The robot id and message kind come from the topic segments:
// robots/{robot_id}/{kind} (or robot/{robot_id}/{kind}/...).
func (h *MessageHandler) HandleMessage(topic string, payload []byte) {
	robotID, kind, ok := SplitRobotTopic(topic)
	if !ok {
		h.logger.Warn("Invalid topic format", "topic", topic)
		return
	}

	switch kind {
	case "heartbeat", "status":
		h.handleRobotStatus(robotID, payload)
	case "telemetry":
		h.handleTelemetry(robotID, payload)
	case "command_result":
		h.HandleCommandResult(payload)
	case "alert":
		h.handleAlert(robotID, payload)
	case "location":
		h.handleLocationUpdate(robotID, payload)
	case "component":
		h.handleComponentStatus(payload)
	case "action":
		h.handleActionStatus(payload)
	case "step":
		h.handleStepStatus(robotID, payload)
	default:
		h.logger.Warn("Unknown message kind", "topic", topic, "kind", kind)
	}
}

// handleRobotStatus processes heartbeat / status messages: it patches
// the robot's live fields and answers whether commands are pending by
// publishing a heartbeat acknowledgement.
func (h *MessageHandler) handleRobotStatus(robotID string, payload []byte) {
	var msg models.RobotStatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid robot status payload", "robot_id", robotID, "error", err)
		return
	}
	if msg.RobotID != "" {
		robotID = msg.RobotID
	}

	if _, err := h.robots.GetByID(robotID); err != nil {
		h.logUnknownEntity("robot", robotID, err)
		return
	}

	status := models.ParseRobotStatus(msg.Status)
	lastSeen := parseTimestamp(firstNonEmpty(msg.LastSeen, msg.Timestamp))

	updates := map[string]interface{}{
		"status":    status,
		"last_seen": lastSeen,
	}
	if len(msg.HealthMetrics) > 0 {
		updates["health_metrics"] = msg.HealthMetrics
	}
	if len(msg.Location) > 0 {
		updates["current_location"] = msg.Location
	}

	if err := h.robots.Update(robotID, updates); err != nil {
		h.logger.Error("Failed to update robot status", "robot_id", robotID, "error", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SaveRobotStatus(robotID, status, lastSeen); err != nil {
			h.logger.Warn("Failed to cache robot status", "robot_id", robotID, "error", err)
		}
	}

	// Read-only query: does any command for this robot still wait?
	pending, err := h.commands.HasPending(robotID)
	if err != nil {
		h.logger.Error("Failed to check pending commands", "robot_id", robotID, "error", err)
		return
	}

	if h.publisher != nil {
		ack := models.HeartbeatAck{RobotID: robotID, CommandsPending: pending}
		if err := h.publisher.Publish(HeartbeatAckTopic(robotID), ack); err != nil {
			h.logger.Warn("Failed to publish heartbeat ack", "robot_id", robotID, "error", err)
		}
	}

	h.logger.Debug("Robot status updated", "robot_id", robotID,
		"status", status, "commands_pending", pending)
}

// handleLocationUpdate appends a location record for the robot. A bad or
// missing timestamp degrades to the current time instead of failing the
// message.
func (h *MessageHandler) handleLocationUpdate(topicRobotID string, payload []byte) {
	var msg models.LocationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid location payload", "robot_id", topicRobotID, "error", err)
		return
	}

	robotID := msg.RobotID
	if robotID == "" {
		robotID = topicRobotID
	}
	if robotID == "" {
		h.logger.Warn("Location update missing robot_id")
		return
	}

	if _, err := h.robots.GetByID(robotID); err != nil {
		h.logUnknownEntity("robot", robotID, err)
		return
	}

	x, y := 0.0, 0.0
	if len(msg.Location) >= 2 {
		x, y = msg.Location[0], msg.Location[1]
	}

	record := &models.LocationRecord{
		RobotID:   robotID,
		X:         x,
		Y:         y,
		Timestamp: parseTimestamp(msg.Timestamp),
	}
	if err := h.robots.AddLocation(record); err != nil {
		h.logger.Error("Failed to store location", "robot_id", robotID, "error", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SaveLocation(record); err != nil {
			h.logger.Warn("Failed to cache location", "robot_id", robotID, "error", err)
		}
	}

	h.logger.Debug("Location updated", "robot_id", robotID, "x", x, "y", y)
}

// handleComponentStatus partially patches an existing component.
func (h *MessageHandler) handleComponentStatus(payload []byte) {
	var msg models.ComponentStatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid component status payload", "error", err)
		return
	}
	if msg.ComponentID == "" {
		h.logger.Warn("Component status missing component_id")
		return
	}

	if _, err := h.components.GetByID(msg.ComponentID); err != nil {
		h.logUnknownEntity("component", msg.ComponentID, err)
		return
	}

	updates := map[string]interface{}{
		"diagnosis_state": models.ParseDiagnosisState(msg.DiagnosisState),
	}
	if msg.Status != "" {
		updates["status"] = models.ComponentStatus(normalizeTag(msg.Status))
	}
	if len(msg.Parameters) > 0 {
		updates["parameters"] = msg.Parameters
	}

	if err := h.components.Update(msg.ComponentID, updates); err != nil {
		h.logger.Error("Failed to update component", "component_id", msg.ComponentID, "error", err)
		return
	}
	h.logger.Debug("Component status updated", "component_id", msg.ComponentID)
}

// handleActionStatus applies a status transition to an existing action.
// Terminal statuses are sticky: a message trying to move a COMPLETED,
// FAILED or CANCELLED action anywhere else is logged and dropped.
func (h *MessageHandler) handleActionStatus(payload []byte) {
	var msg models.ActionStatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid action status payload", "error", err)
		return
	}
	if msg.ActionID == "" {
		h.logger.Warn("Action status missing action_id")
		return
	}

	next, known := models.ParseExecStatus(msg.Status)
	if !known {
		h.logger.Warn("Unknown action status", "action_id", msg.ActionID, "status", msg.Status)
		return
	}

	err := h.actions.UpdateWithLock(msg.ActionID, func(action *models.Action) (map[string]interface{}, error) {
		if !action.Status.CanTransitionTo(next) {
			h.logger.Warn("Rejected action transition out of terminal status",
				"action_id", msg.ActionID, "current", action.Status, "requested", next)
			return nil, nil
		}
		if action.Status == next && action.Status.IsTerminal() {
			h.logger.Debug("Duplicate terminal action status, ignoring",
				"action_id", msg.ActionID, "status", next)
			return nil, nil
		}

		updates := map[string]interface{}{"status": next}
		if len(msg.Result) > 0 {
			updates["result"] = msg.Result
		}
		if msg.Error != "" {
			updates["error"] = msg.Error
		}
		now := time.Now().UTC()
		if next == models.ExecStatusInProgress && action.StartedAt == nil {
			updates["started_at"] = now
		}
		// completed_at is stamped only on the transition into COMPLETED.
		if next == models.ExecStatusCompleted {
			updates["completed_at"] = now
		}
		return updates, nil
	})
	if err != nil {
		h.logEntityError("action", msg.ActionID, err)
		return
	}
	h.logger.Debug("Action status updated", "action_id", msg.ActionID, "status", next)
}

// handleStepStatus applies a status transition to an existing step, emits
// a STEP_FAILURE alert on FAILED, and recomputes the owning action's
// completion afterwards.
func (h *MessageHandler) handleStepStatus(topicRobotID string, payload []byte) {
	var msg models.StepStatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid step status payload", "error", err)
		return
	}
	if msg.StepID == "" {
		h.logger.Warn("Step status missing step_id")
		return
	}

	next, known := models.ParseExecStatus(msg.Status)
	if !known {
		h.logger.Warn("Unknown step status", "step_id", msg.StepID, "status", msg.Status)
		return
	}

	var actionID string
	applied := false

	err := h.steps.UpdateWithLock(msg.StepID, func(step *models.Step) (map[string]interface{}, error) {
		actionID = step.ActionID

		if !step.Status.CanTransitionTo(next) {
			h.logger.Warn("Rejected step transition out of terminal status",
				"step_id", msg.StepID, "current", step.Status, "requested", next)
			return nil, nil
		}
		if step.Status == next && step.Status.IsTerminal() {
			h.logger.Debug("Duplicate terminal step status, ignoring",
				"step_id", msg.StepID, "status", next)
			return nil, nil
		}

		updates := map[string]interface{}{"status": next}
		if len(msg.Result) > 0 {
			updates["result"] = msg.Result
		}
		if msg.Error != "" {
			updates["error"] = msg.Error
		}
		if msg.ExecutionTime > 0 {
			updates["execution_time"] = msg.ExecutionTime
		}
		now := time.Now().UTC()
		if next == models.ExecStatusInProgress && step.StartedAt == nil {
			updates["started_at"] = now
		}
		if next == models.ExecStatusCompleted {
			updates["completed_at"] = now
		}
		applied = true
		return updates, nil
	})
	if err != nil {
		h.logEntityError("step", msg.StepID, err)
		return
	}

	if applied && next == models.ExecStatusFailed {
		h.emitStepFailureAlert(topicRobotID, msg.StepID, actionID, msg.Error)
	}

	if actionID != "" {
		h.recomputeActionStatus(actionID)
	}
}

// HandleCommandResult applies the terminal result of a command. It is
// idempotent: a result for an already-terminal command is a no-op apart
// from logging, so duplicate deliveries cause no status oscillation and
// no duplicate alerts.
func (h *MessageHandler) HandleCommandResult(payload []byte) {
	var msg models.CommandResultMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid command result payload", "error", err)
		return
	}
	if msg.CommandID == "" {
		h.logger.Warn("Command result missing command_id")
		return
	}

	next, known := models.ParseExecStatus(msg.Status)
	if !known {
		h.logger.Warn("Unknown command status", "command_id", msg.CommandID, "status", msg.Status)
		return
	}

	var robotID string
	applied := false

	err := h.commands.UpdateWithLock(msg.CommandID, func(command *models.Command) (map[string]interface{}, error) {
		robotID = command.RobotID

		if command.Status.IsTerminal() {
			h.logger.Info("Command already terminal, ignoring result",
				"command_id", msg.CommandID, "status", command.Status, "requested", next)
			return nil, nil
		}

		updates := map[string]interface{}{"status": next}
		if len(msg.Result) > 0 {
			updates["result"] = msg.Result
		}
		if msg.Error != "" {
			updates["error"] = msg.Error
		}
		if msg.ExecutionTime > 0 {
			updates["execution_time"] = msg.ExecutionTime
		}
		if next.IsTerminal() {
			updates["completed_at"] = time.Now().UTC()
		}
		applied = true
		return updates, nil
	})
	if err != nil {
		h.logEntityError("command", msg.CommandID, err)
		return
	}

	if applied && next == models.ExecStatusFailed {
		h.emitCommandFailureAlert(robotID, msg.CommandID, msg.Error)
	}

	h.logger.Debug("Command result processed", "command_id", msg.CommandID, "status", next)
}

// handleTelemetry stores a telemetry batch for an existing robot.
func (h *MessageHandler) handleTelemetry(robotID string, payload []byte) {
	var msg models.TelemetryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid telemetry payload", "robot_id", robotID, "error", err)
		return
	}
	if msg.RobotID != "" {
		robotID = msg.RobotID
	}
	h.storeTelemetry(robotID, msg.Data)
}

// HandleTelemetryData consumes telemetry deliveries from the command
// bus, where the robot id is carried in the payload.
func (h *MessageHandler) HandleTelemetryData(payload []byte) {
	var msg models.TelemetryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid telemetry payload", "error", err)
		return
	}
	if msg.RobotID == "" {
		h.logger.Warn("Telemetry missing robot_id")
		return
	}
	h.storeTelemetry(msg.RobotID, msg.Data)
}

func (h *MessageHandler) storeTelemetry(robotID string, samples []models.TelemetrySample) {
	if _, err := h.robots.GetByID(robotID); err != nil {
		h.logUnknownEntity("robot", robotID, err)
		return
	}

	records := make([]models.TelemetryRecord, 0, len(samples))
	for _, sample := range samples {
		records = append(records, models.TelemetryRecord{
			RobotID:   robotID,
			Timestamp: parseTimestamp(sample.Timestamp),
			Data:      sample.Data,
		})
	}
	if err := h.telemetry.CreateBatch(records); err != nil {
		h.logger.Error("Failed to store telemetry", "robot_id", robotID, "error", err)
		return
	}
	h.logger.Debug("Telemetry stored", "robot_id", robotID, "records", len(records))
}

// handleAlert appends an alert reported by the robot itself.
func (h *MessageHandler) handleAlert(robotID string, payload []byte) {
	var msg models.AlertMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Error("Invalid alert payload", "robot_id", robotID, "error", err)
		return
	}
	if msg.RobotID != "" {
		robotID = msg.RobotID
	}

	if _, err := h.robots.GetByID(robotID); err != nil {
		h.logUnknownEntity("robot", robotID, err)
		return
	}

	alertType := models.AlertTypeOther
	if msg.AlertType != "" {
		alertType = models.AlertType(normalizeTag(msg.AlertType))
	}

	alert := &models.Alert{
		AlertID:   utils.GenerateAlertID(),
		RobotID:   robotID,
		Type:      alertType,
		Severity:  models.ParseAlertSeverity(msg.Severity),
		Message:   msg.Message,
		Timestamp: parseTimestamp(msg.Timestamp),
		Details:   msg.Details,
	}
	if err := h.alerts.Create(alert); err != nil {
		h.logger.Error("Failed to store alert", "robot_id", robotID, "error", err)
		return
	}
	h.logger.Info("Alert stored", "robot_id", robotID,
		"type", alert.Type, "severity", alert.Severity)
}

// recomputeActionStatus derives the owning action's completion from the
// full current state of its steps. It is invoked synchronously after
// every step write and is deliberately recomputed, never cached, so it
// tolerates duplicate and out-of-order step messages.
func (h *MessageHandler) recomputeActionStatus(actionID string) {
	steps, err := h.steps.ListByAction(actionID)
	if err != nil {
		h.logger.Error("Failed to list steps for action", "action_id", actionID, "error", err)
		return
	}
	if len(steps) == 0 {
		h.logger.Warn("Action has no steps, skipping completion check", "action_id", actionID)
		return
	}

	for _, step := range steps {
		if step.Status != models.ExecStatusCompleted {
			return
		}
	}

	err = h.actions.UpdateWithLock(actionID, func(action *models.Action) (map[string]interface{}, error) {
		if action.Status.IsTerminal() {
			return nil, nil
		}
		return map[string]interface{}{
			"status":       models.ExecStatusCompleted,
			"completed_at": time.Now().UTC(),
		}, nil
	})
	if err != nil {
		h.logEntityError("action", actionID, err)
		return
	}
	h.logger.Info("Action completed, all steps done", "action_id", actionID)
}

func (h *MessageHandler) emitStepFailureAlert(topicRobotID, stepID, actionID, errMsg string) {
	robotID := h.resolveRobotForAction(actionID)
	if robotID == "" {
		robotID = topicRobotID
	}

	alert := &models.Alert{
		AlertID:   utils.GenerateAlertID(),
		RobotID:   robotID,
		Type:      models.AlertTypeStepFailure,
		Severity:  models.SeverityHigh,
		Message:   "Step execution failed",
		Timestamp: time.Now().UTC(),
		Details: models.ToJSON(map[string]interface{}{
			"step_id":   stepID,
			"action_id": actionID,
			"error":     errMsg,
		}),
	}
	if err := h.alerts.Create(alert); err != nil {
		h.logger.Error("Failed to store step failure alert", "step_id", stepID, "error", err)
		return
	}
	h.logger.Warn("Step failed", "step_id", stepID, "action_id", actionID, "robot_id", robotID)
}

func (h *MessageHandler) emitCommandFailureAlert(robotID, commandID, errMsg string) {
	alert := &models.Alert{
		AlertID:   utils.GenerateAlertID(),
		RobotID:   robotID,
		Type:      models.AlertTypeCommandFailure,
		Severity:  models.SeverityHigh,
		Message:   "Command execution failed",
		Timestamp: time.Now().UTC(),
		Details: models.ToJSON(map[string]interface{}{
			"command_id": commandID,
			"error":      errMsg,
		}),
	}
	if err := h.alerts.Create(alert); err != nil {
		h.logger.Error("Failed to store command failure alert", "command_id", commandID, "error", err)
		return
	}
	h.logger.Warn("Command failed", "command_id", commandID, "robot_id", robotID)
}

// resolveRobotForAction walks action -> component -> robot.
func (h *MessageHandler) resolveRobotForAction(actionID string) string {
	action, err := h.actions.GetByID(actionID)
	if err != nil {
		return ""
	}
	component, err := h.components.GetByID(action.ComponentID)
	if err != nil {
		return ""
	}
	return component.RobotID
}

func (h *MessageHandler) logUnknownEntity(entity, id string, err error) {
	if base.IsEntityNotFound(err) {
		h.logger.Warn("Message references unknown entity", "entity", entity, "id", id)
		return
	}
	h.logger.Error("Failed to load entity", "entity", entity, "id", id, "error", err)
}

func (h *MessageHandler) logEntityError(entity, id string, err error) {
	if base.IsEntityNotFound(err) {
		h.logger.Warn("Message references unknown entity", "entity", entity, "id", id)
		return
	}
	h.logger.Error("Failed to persist entity update", "entity", entity, "id", id, "error", err)
}

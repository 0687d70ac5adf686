package services

import (
	"fmt"
	"log/slog"
	"time"

	"fleet-bridge/models"
	"fleet-bridge/repositories/interfaces"
	"fleet-bridge/utils"
)

// CommandSender delivers a command to a robot over the command bus.
type CommandSender interface {
	SendCommandToRobot(robotID string, command *models.Command) bool
}

// CommandService dispatches commands and processes their results.
type CommandService struct {
	commands interfaces.CommandRepositoryInterface
	robots   interfaces.RobotRepositoryInterface
	alerts   interfaces.AlertRepositoryInterface
	sender   CommandSender
	logger   *slog.Logger
}

func NewCommandService(
	commands interfaces.CommandRepositoryInterface,
	robots interfaces.RobotRepositoryInterface,
	alerts interfaces.AlertRepositoryInterface,
	sender CommandSender,
	logger *slog.Logger,
) *CommandService {
	return &CommandService{
		commands: commands,
		robots:   robots,
		alerts:   alerts,
		sender:   sender,
		logger:   logger.With("component", "command_service"),
	}
}

// Dispatch records a new command as PENDING and hands it to the bus. The
// command survives a delivery failure; the robot picks it up by polling.
func (s *CommandService) Dispatch(robotID string, req *models.DispatchCommandRequest) (*models.Command, error) {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return nil, err
	}

	commandType, ok := models.ParseCommandType(req.CommandType)
	if !ok {
		return nil, fmt.Errorf("unknown command type: %s", req.CommandType)
	}

	command := &models.Command{
		CommandID:   utils.GenerateCommandID(),
		RobotID:     robotID,
		CommandType: commandType,
		Parameters:  req.Parameters,
		Status:      models.ExecStatusPending,
	}
	if err := s.commands.Create(command); err != nil {
		return nil, fmt.Errorf("failed to store command: %w", err)
	}

	delivered := s.sender.SendCommandToRobot(robotID, command)
	if !delivered {
		s.logger.Warn("Command not delivered, robot will poll for it",
			"command_id", command.CommandID, "robot_id", robotID)
	}

	s.logger.Info("Command dispatched", "command_id", command.CommandID,
		"robot_id", robotID, "type", commandType, "delivered", delivered)
	return command, nil
}

// ApplyResult records the terminal result of a command reported over
// REST. It shares its idempotency rule with the broker path: the first
// terminal status wins and later reports are ignored.
func (s *CommandService) ApplyResult(req *models.CommandResultRequest) (*models.CommandResultResponse, error) {
	next, known := models.ParseExecStatus(req.Status)
	if !known {
		return nil, fmt.Errorf("unknown command status: %s", req.Status)
	}

	var robotID string
	applied := false

	err := s.commands.UpdateWithLock(req.CommandID, func(command *models.Command) (map[string]interface{}, error) {
		robotID = command.RobotID
		if command.Status.IsTerminal() {
			s.logger.Info("Command already terminal, ignoring result",
				"command_id", req.CommandID, "status", command.Status)
			return nil, nil
		}

		updates := map[string]interface{}{"status": next}
		if len(req.Result) > 0 {
			updates["result"] = req.Result
		}
		if req.Error != "" {
			updates["error"] = req.Error
		}
		if req.ExecutionTime > 0 {
			updates["execution_time"] = req.ExecutionTime
		}
		if next.IsTerminal() {
			updates["completed_at"] = time.Now().UTC()
		}
		applied = true
		return updates, nil
	})
	if err != nil {
		return nil, err
	}

	if applied && next == models.ExecStatusFailed {
		alert := &models.Alert{
			AlertID:   utils.GenerateAlertID(),
			RobotID:   robotID,
			Type:      models.AlertTypeCommandFailure,
			Severity:  models.SeverityHigh,
			Message:   "Command execution failed",
			Timestamp: time.Now().UTC(),
			Details: models.ToJSON(map[string]interface{}{
				"command_id": req.CommandID,
				"error":      req.Error,
			}),
		}
		if err := s.alerts.Create(alert); err != nil {
			s.logger.Error("Failed to store command failure alert",
				"command_id", req.CommandID, "error", err)
		}
	}

	return &models.CommandResultResponse{Success: true, Message: "Result recorded"}, nil
}

// Poll returns the robot's pending commands and marks each one
// IN_PROGRESS so a second poll does not hand them out again.
func (s *CommandService) Poll(robotID string) (*models.PollCommandsResponse, error) {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return nil, err
	}

	pending, err := s.commands.ListPending(robotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending commands: %w", err)
	}

	out := make([]models.PendingCommand, 0, len(pending))
	for _, command := range pending {
		err := s.commands.Update(command.CommandID, map[string]interface{}{
			"status": models.ExecStatusInProgress,
		})
		if err != nil {
			s.logger.Error("Failed to mark command in progress",
				"command_id", command.CommandID, "error", err)
			continue
		}
		out = append(out, models.PendingCommand{
			CommandID:   command.CommandID,
			CommandType: command.CommandType,
			Parameters:  command.Parameters,
		})
	}

	return &models.PollCommandsResponse{
		Success:  true,
		Message:  fmt.Sprintf("%d commands pending", len(out)),
		Commands: out,
	}, nil
}

// Cancel moves a non-terminal command to CANCELLED. Cancelling a
// command that already reached a terminal status is an error.
func (s *CommandService) Cancel(commandID string) (*models.Command, error) {
	err := s.commands.UpdateWithLock(commandID, func(command *models.Command) (map[string]interface{}, error) {
		if command.Status.IsTerminal() {
			return nil, fmt.Errorf("command %s is already %s", commandID, command.Status)
		}
		return map[string]interface{}{
			"status":       models.ExecStatusCancelled,
			"completed_at": time.Now().UTC(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Command cancelled", "command_id", commandID)
	return s.commands.GetByID(commandID)
}

func (s *CommandService) GetCommand(commandID string) (*models.Command, error) {
	return s.commands.GetByID(commandID)
}

func (s *CommandService) ListCommands(robotID string, limit, offset int) ([]models.Command, error) {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return nil, err
	}
	return s.commands.ListByRobot(robotID, limit, offset)
}

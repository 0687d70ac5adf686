package models

import "strings"

// ===================================================================
// STATUS TAG SETS
// ===================================================================

// RobotStatus represents the connectivity/operational state of a robot.
type RobotStatus string

const (
	RobotStatusOnline      RobotStatus = "ONLINE"
	RobotStatusOffline     RobotStatus = "OFFLINE"
	RobotStatusBusy        RobotStatus = "BUSY"
	RobotStatusError       RobotStatus = "ERROR"
	RobotStatusMaintenance RobotStatus = "MAINTENANCE"
)

// ParseRobotStatus parses a status string case-insensitively.
// Unknown values fall back to OFFLINE.
func ParseRobotStatus(s string) RobotStatus {
	switch RobotStatus(strings.ToUpper(s)) {
	case RobotStatusOnline, RobotStatusOffline, RobotStatusBusy,
		RobotStatusError, RobotStatusMaintenance:
		return RobotStatus(strings.ToUpper(s))
	}
	return RobotStatusOffline
}

// ComponentStatus represents the operational state of a robot component.
type ComponentStatus string

const (
	ComponentStatusActive      ComponentStatus = "ACTIVE"
	ComponentStatusInactive    ComponentStatus = "INACTIVE"
	ComponentStatusMaintenance ComponentStatus = "MAINTENANCE"
	ComponentStatusError       ComponentStatus = "ERROR"
)

// DiagnosisState represents the health diagnosis of a component.
type DiagnosisState string

const (
	DiagnosisUnknown  DiagnosisState = "UNKNOWN"
	DiagnosisHealthy  DiagnosisState = "HEALTHY"
	DiagnosisWarning  DiagnosisState = "WARNING"
	DiagnosisCritical DiagnosisState = "CRITICAL"
)

// ParseDiagnosisState parses a diagnosis string case-insensitively,
// defaulting to UNKNOWN.
func ParseDiagnosisState(s string) DiagnosisState {
	switch DiagnosisState(strings.ToUpper(s)) {
	case DiagnosisHealthy, DiagnosisWarning, DiagnosisCritical, DiagnosisUnknown:
		return DiagnosisState(strings.ToUpper(s))
	}
	return DiagnosisUnknown
}

// ExecStatus is the shared execution state machine for Actions, Steps
// and Commands: PENDING -> IN_PROGRESS -> {COMPLETED|FAILED|CANCELLED}.
type ExecStatus string

const (
	ExecStatusPending    ExecStatus = "PENDING"
	ExecStatusInProgress ExecStatus = "IN_PROGRESS"
	ExecStatusCompleted  ExecStatus = "COMPLETED"
	ExecStatusFailed     ExecStatus = "FAILED"
	ExecStatusCancelled  ExecStatus = "CANCELLED"
)

// ParseExecStatus parses an execution status case-insensitively.
// The second return value reports whether the input was a known tag.
func ParseExecStatus(s string) (ExecStatus, bool) {
	switch ExecStatus(strings.ToUpper(s)) {
	case ExecStatusPending, ExecStatusInProgress, ExecStatusCompleted,
		ExecStatusFailed, ExecStatusCancelled:
		return ExecStatus(strings.ToUpper(s)), true
	}
	return ExecStatusPending, false
}

// IsTerminal reports whether the status admits no further transitions.
func (s ExecStatus) IsTerminal() bool {
	return s == ExecStatusCompleted || s == ExecStatusFailed || s == ExecStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is legal.
// Terminal states only accept re-application of the same state, which
// callers treat as a no-op.
func (s ExecStatus) CanTransitionTo(next ExecStatus) bool {
	if s.IsTerminal() {
		return s == next
	}
	return true
}

// CommandType is the closed set of commands a robot understands.
type CommandType string

const (
	CommandMove           CommandType = "MOVE"
	CommandGoto           CommandType = "GOTO"
	CommandArm            CommandType = "ARM"
	CommandDisarm         CommandType = "DISARM"
	CommandSetMode        CommandType = "SET_MODE"
	CommandCreateMission  CommandType = "CREATE_MISSION"
	CommandExecuteMission CommandType = "EXECUTE_MISSION"
	CommandStop           CommandType = "STOP"
	CommandPause          CommandType = "PAUSE"
	CommandResume         CommandType = "RESUME"
	CommandCalibrate      CommandType = "CALIBRATE"
	CommandUpdateFirmware CommandType = "UPDATE_FIRMWARE"
	CommandReboot         CommandType = "REBOOT"
	CommandShutdown       CommandType = "SHUTDOWN"
)

// ParseCommandType parses a command type case-insensitively. The second
// return value reports whether the input names a known command.
func ParseCommandType(s string) (CommandType, bool) {
	ct := CommandType(strings.ToUpper(s))
	switch ct {
	case CommandMove, CommandGoto, CommandArm, CommandDisarm, CommandSetMode,
		CommandCreateMission, CommandExecuteMission, CommandStop, CommandPause,
		CommandResume, CommandCalibrate, CommandUpdateFirmware, CommandReboot,
		CommandShutdown:
		return ct, true
	}
	return "", false
}

// AlertSeverity orders alerts by urgency.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityLow      AlertSeverity = "LOW"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// ParseAlertSeverity parses a severity case-insensitively, defaulting to
// INFO. The legacy WARNING/ERROR vocabulary maps to MEDIUM/HIGH.
func ParseAlertSeverity(s string) AlertSeverity {
	switch strings.ToUpper(s) {
	case "INFO":
		return SeverityInfo
	case "LOW":
		return SeverityLow
	case "MEDIUM", "WARNING":
		return SeverityMedium
	case "HIGH", "ERROR":
		return SeverityHigh
	case "CRITICAL":
		return SeverityCritical
	}
	return SeverityInfo
}

// AlertType tags the kind of event an alert describes. The set is open;
// these are the values the backend itself emits or recognizes.
type AlertType string

const (
	AlertTypeSystem         AlertType = "SYSTEM"
	AlertTypeComponent      AlertType = "COMPONENT"
	AlertTypeBattery        AlertType = "BATTERY"
	AlertTypeLocation       AlertType = "LOCATION"
	AlertTypeStepFailure    AlertType = "STEP_FAILURE"
	AlertTypeCommandFailure AlertType = "COMMAND_FAILURE"
	AlertTypeOther          AlertType = "OTHER"
)

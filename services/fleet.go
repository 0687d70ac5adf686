package services

import (
	"fmt"
	"log/slog"

	"fleet-bridge/models"
	"fleet-bridge/repositories/interfaces"
	"fleet-bridge/utils"
)

// FleetService manages the component / action / step hierarchy beneath
// a robot.
type FleetService struct {
	robots     interfaces.RobotRepositoryInterface
	components interfaces.ComponentRepositoryInterface
	actions    interfaces.ActionRepositoryInterface
	steps      interfaces.StepRepositoryInterface
	logger     *slog.Logger
}

func NewFleetService(
	robots interfaces.RobotRepositoryInterface,
	components interfaces.ComponentRepositoryInterface,
	actions interfaces.ActionRepositoryInterface,
	steps interfaces.StepRepositoryInterface,
	logger *slog.Logger,
) *FleetService {
	return &FleetService{
		robots:     robots,
		components: components,
		actions:    actions,
		steps:      steps,
		logger:     logger.With("component", "fleet_service"),
	}
}

// CreateComponent attaches a new component to an existing robot.
func (s *FleetService) CreateComponent(robotID string, req *models.CreateComponentRequest) (*models.Component, error) {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, fmt.Errorf("component name is required")
	}

	status := models.ComponentStatusInactive
	if req.Status != "" {
		status = models.ComponentStatus(req.Status)
	}
	component := &models.Component{
		ComponentID:    utils.GenerateComponentID(),
		RobotID:        robotID,
		Name:           req.Name,
		Type:           req.Type,
		Status:         status,
		DiagnosisState: models.DiagnosisUnknown,
		Capabilities:   req.Capabilities,
		Parameters:     req.Parameters,
		Metadata:       req.Metadata,
	}
	if err := s.components.Create(component); err != nil {
		return nil, fmt.Errorf("failed to create component: %w", err)
	}

	s.logger.Info("Component created", "component_id", component.ComponentID, "robot_id", robotID)
	return component, nil
}

func (s *FleetService) GetComponent(componentID string) (*models.Component, error) {
	return s.components.GetByID(componentID)
}

func (s *FleetService) ListComponents(robotID string) ([]models.Component, error) {
	if _, err := s.robots.GetByID(robotID); err != nil {
		return nil, err
	}
	return s.components.ListByRobot(robotID)
}

// UpdateComponent partially patches a component; absent fields stay
// untouched.
func (s *FleetService) UpdateComponent(componentID string, req *models.UpdateComponentRequest) (*models.Component, error) {
	if _, err := s.components.GetByID(componentID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Status != nil {
		updates["status"] = models.ComponentStatus(*req.Status)
	}
	if req.DiagnosisState != nil {
		updates["diagnosis_state"] = models.ParseDiagnosisState(*req.DiagnosisState)
	}
	if len(req.Parameters) > 0 {
		updates["parameters"] = req.Parameters
	}
	if len(req.HealthMetrics) > 0 {
		updates["health_metrics"] = req.HealthMetrics
	}
	if len(req.Metadata) > 0 {
		updates["metadata"] = req.Metadata
	}
	if len(updates) > 0 {
		if err := s.components.Update(componentID, updates); err != nil {
			return nil, fmt.Errorf("failed to update component: %w", err)
		}
	}
	return s.components.GetByID(componentID)
}

// DeleteComponent removes a component and cascades to its actions and
// steps.
func (s *FleetService) DeleteComponent(componentID string) error {
	if _, err := s.components.GetByID(componentID); err != nil {
		return err
	}
	if err := s.components.Delete(componentID); err != nil {
		return fmt.Errorf("failed to delete component: %w", err)
	}
	s.logger.Info("Component deleted", "component_id", componentID)
	return nil
}

// CreateAction creates an action with its step plan in one shot. Steps
// start PENDING in the given sequence order.
func (s *FleetService) CreateAction(componentID string, req *models.CreateActionRequest) (*models.Action, error) {
	if _, err := s.components.GetByID(componentID); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, fmt.Errorf("action name is required")
	}

	action := &models.Action{
		ActionID:    utils.GenerateActionID(),
		ComponentID: componentID,
		Name:        req.Name,
		Type:        req.Type,
		Status:      models.ExecStatusPending,
		Parameters:  req.Parameters,
	}
	if err := s.actions.Create(action); err != nil {
		return nil, fmt.Errorf("failed to create action: %w", err)
	}

	if len(req.Steps) > 0 {
		steps := make([]models.Step, 0, len(req.Steps))
		for i, stepReq := range req.Steps {
			sequence := stepReq.Sequence
			if sequence == 0 {
				sequence = i + 1
			}
			steps = append(steps, models.Step{
				StepID:     utils.GenerateStepID(),
				ActionID:   action.ActionID,
				Sequence:   sequence,
				Command:    stepReq.Command,
				Parameters: stepReq.Parameters,
				Status:     models.ExecStatusPending,
			})
		}
		if err := s.steps.CreateBatch(steps); err != nil {
			return nil, fmt.Errorf("failed to create steps: %w", err)
		}
	}

	s.logger.Info("Action created", "action_id", action.ActionID,
		"component_id", componentID, "steps", len(req.Steps))
	return action, nil
}

func (s *FleetService) GetAction(actionID string) (*models.Action, error) {
	return s.actions.GetByID(actionID)
}

func (s *FleetService) ListActions(componentID string) ([]models.Action, error) {
	if _, err := s.components.GetByID(componentID); err != nil {
		return nil, err
	}
	return s.actions.ListByComponent(componentID)
}

// DeleteAction removes an action and cascades to its steps.
func (s *FleetService) DeleteAction(actionID string) error {
	if _, err := s.actions.GetByID(actionID); err != nil {
		return err
	}
	if err := s.actions.Delete(actionID); err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}
	s.logger.Info("Action deleted", "action_id", actionID)
	return nil
}

func (s *FleetService) GetStep(stepID string) (*models.Step, error) {
	return s.steps.GetByID(stepID)
}

func (s *FleetService) ListSteps(actionID string) ([]models.Step, error) {
	if _, err := s.actions.GetByID(actionID); err != nil {
		return nil, err
	}
	return s.steps.ListByAction(actionID)
}

package messaging

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
)

// In-memory repository fakes. UpdateWithLock applies the mutate result
// to the stored struct the same way the SQL implementation does.

type fakeRobotRepo struct {
	robots    map[string]*models.Robot
	locations []models.LocationRecord
}

func newFakeRobotRepo() *fakeRobotRepo {
	return &fakeRobotRepo{robots: make(map[string]*models.Robot)}
}

func (f *fakeRobotRepo) Create(robot *models.Robot) error {
	f.robots[robot.RobotID] = robot
	return nil
}

func (f *fakeRobotRepo) Upsert(robot *models.Robot) error {
	f.robots[robot.RobotID] = robot
	return nil
}

func (f *fakeRobotRepo) GetByID(robotID string) (*models.Robot, error) {
	robot, ok := f.robots[robotID]
	if !ok {
		return nil, base.NewEntityNotFoundError("robots", robotID)
	}
	copied := *robot
	return &copied, nil
}

func (f *fakeRobotRepo) List(limit, offset int) ([]models.Robot, error) { return nil, nil }

func (f *fakeRobotRepo) Update(robotID string, updates map[string]interface{}) error {
	robot, ok := f.robots[robotID]
	if !ok {
		return base.NewEntityNotFoundError("robots", robotID)
	}
	if v, ok := updates["status"]; ok {
		robot.Status = v.(models.RobotStatus)
	}
	if v, ok := updates["last_seen"]; ok {
		robot.LastSeen = v.(time.Time)
	}
	if v, ok := updates["health_metrics"]; ok {
		robot.HealthMetrics = v.(models.JSON)
	}
	if v, ok := updates["current_location"]; ok {
		robot.CurrentLocation = v.(models.JSON)
	}
	return nil
}

func (f *fakeRobotRepo) Delete(robotID string) error { delete(f.robots, robotID); return nil }

func (f *fakeRobotRepo) AddLocation(record *models.LocationRecord) error {
	f.locations = append(f.locations, *record)
	return nil
}

func (f *fakeRobotRepo) LatestLocation(robotID string) (*models.LocationRecord, error) {
	for i := len(f.locations) - 1; i >= 0; i-- {
		if f.locations[i].RobotID == robotID {
			return &f.locations[i], nil
		}
	}
	return nil, base.NewEntityNotFoundError("location_records", robotID)
}

type fakeComponentRepo struct {
	components map[string]*models.Component
}

func newFakeComponentRepo() *fakeComponentRepo {
	return &fakeComponentRepo{components: make(map[string]*models.Component)}
}

func (f *fakeComponentRepo) Create(component *models.Component) error {
	f.components[component.ComponentID] = component
	return nil
}

func (f *fakeComponentRepo) GetByID(componentID string) (*models.Component, error) {
	component, ok := f.components[componentID]
	if !ok {
		return nil, base.NewEntityNotFoundError("components", componentID)
	}
	copied := *component
	return &copied, nil
}

func (f *fakeComponentRepo) ListByRobot(robotID string) ([]models.Component, error) { return nil, nil }

func (f *fakeComponentRepo) Update(componentID string, updates map[string]interface{}) error {
	component, ok := f.components[componentID]
	if !ok {
		return base.NewEntityNotFoundError("components", componentID)
	}
	if v, ok := updates["status"]; ok {
		component.Status = v.(models.ComponentStatus)
	}
	if v, ok := updates["diagnosis_state"]; ok {
		component.DiagnosisState = v.(models.DiagnosisState)
	}
	if v, ok := updates["parameters"]; ok {
		component.Parameters = v.(models.JSON)
	}
	return nil
}

func (f *fakeComponentRepo) Delete(componentID string) error {
	delete(f.components, componentID)
	return nil
}

type fakeActionRepo struct {
	actions map[string]*models.Action
}

func newFakeActionRepo() *fakeActionRepo {
	return &fakeActionRepo{actions: make(map[string]*models.Action)}
}

func (f *fakeActionRepo) Create(action *models.Action) error {
	f.actions[action.ActionID] = action
	return nil
}

func (f *fakeActionRepo) GetByID(actionID string) (*models.Action, error) {
	action, ok := f.actions[actionID]
	if !ok {
		return nil, base.NewEntityNotFoundError("actions", actionID)
	}
	copied := *action
	return &copied, nil
}

func (f *fakeActionRepo) ListByComponent(componentID string) ([]models.Action, error) {
	return nil, nil
}

func applyExecUpdates(status *models.ExecStatus, result *models.JSON, errMsg *string,
	startedAt, completedAt **time.Time, updates map[string]interface{}) {
	if v, ok := updates["status"]; ok {
		*status = v.(models.ExecStatus)
	}
	if v, ok := updates["result"]; ok {
		*result = v.(models.JSON)
	}
	if v, ok := updates["error"]; ok {
		*errMsg = v.(string)
	}
	if v, ok := updates["started_at"]; ok {
		t := v.(time.Time)
		*startedAt = &t
	}
	if v, ok := updates["completed_at"]; ok {
		t := v.(time.Time)
		*completedAt = &t
	}
}

func (f *fakeActionRepo) Update(actionID string, updates map[string]interface{}) error {
	action, ok := f.actions[actionID]
	if !ok {
		return base.NewEntityNotFoundError("actions", actionID)
	}
	applyExecUpdates(&action.Status, &action.Result, &action.Error,
		&action.StartedAt, &action.CompletedAt, updates)
	return nil
}

func (f *fakeActionRepo) UpdateWithLock(actionID string, mutate func(*models.Action) (map[string]interface{}, error)) error {
	action, ok := f.actions[actionID]
	if !ok {
		return base.NewEntityNotFoundError("actions", actionID)
	}
	snapshot := *action
	updates, err := mutate(&snapshot)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	return f.Update(actionID, updates)
}

func (f *fakeActionRepo) Delete(actionID string) error { delete(f.actions, actionID); return nil }

type fakeStepRepo struct {
	steps map[string]*models.Step
}

func newFakeStepRepo() *fakeStepRepo {
	return &fakeStepRepo{steps: make(map[string]*models.Step)}
}

func (f *fakeStepRepo) Create(step *models.Step) error {
	f.steps[step.StepID] = step
	return nil
}

func (f *fakeStepRepo) CreateBatch(steps []models.Step) error {
	for i := range steps {
		step := steps[i]
		f.steps[step.StepID] = &step
	}
	return nil
}

func (f *fakeStepRepo) GetByID(stepID string) (*models.Step, error) {
	step, ok := f.steps[stepID]
	if !ok {
		return nil, base.NewEntityNotFoundError("steps", stepID)
	}
	copied := *step
	return &copied, nil
}

func (f *fakeStepRepo) ListByAction(actionID string) ([]models.Step, error) {
	var out []models.Step
	for _, step := range f.steps {
		if step.ActionID == actionID {
			out = append(out, *step)
		}
	}
	return out, nil
}

func (f *fakeStepRepo) Update(stepID string, updates map[string]interface{}) error {
	step, ok := f.steps[stepID]
	if !ok {
		return base.NewEntityNotFoundError("steps", stepID)
	}
	applyExecUpdates(&step.Status, &step.Result, &step.Error,
		&step.StartedAt, &step.CompletedAt, updates)
	if v, ok := updates["execution_time"]; ok {
		step.ExecutionTime = v.(float64)
	}
	return nil
}

func (f *fakeStepRepo) UpdateWithLock(stepID string, mutate func(*models.Step) (map[string]interface{}, error)) error {
	step, ok := f.steps[stepID]
	if !ok {
		return base.NewEntityNotFoundError("steps", stepID)
	}
	snapshot := *step
	updates, err := mutate(&snapshot)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	return f.Update(stepID, updates)
}

type fakeCommandRepo struct {
	commands map[string]*models.Command
}

func newFakeCommandRepo() *fakeCommandRepo {
	return &fakeCommandRepo{commands: make(map[string]*models.Command)}
}

func (f *fakeCommandRepo) Create(command *models.Command) error {
	f.commands[command.CommandID] = command
	return nil
}

func (f *fakeCommandRepo) GetByID(commandID string) (*models.Command, error) {
	command, ok := f.commands[commandID]
	if !ok {
		return nil, base.NewEntityNotFoundError("commands", commandID)
	}
	copied := *command
	return &copied, nil
}

func (f *fakeCommandRepo) ListByRobot(robotID string, limit, offset int) ([]models.Command, error) {
	return nil, nil
}

func (f *fakeCommandRepo) ListPending(robotID string) ([]models.Command, error) {
	var out []models.Command
	for _, command := range f.commands {
		if command.RobotID == robotID && command.Status == models.ExecStatusPending {
			out = append(out, *command)
		}
	}
	return out, nil
}

func (f *fakeCommandRepo) HasPending(robotID string) (bool, error) {
	pending, _ := f.ListPending(robotID)
	return len(pending) > 0, nil
}

func (f *fakeCommandRepo) Update(commandID string, updates map[string]interface{}) error {
	command, ok := f.commands[commandID]
	if !ok {
		return base.NewEntityNotFoundError("commands", commandID)
	}
	var started *time.Time
	applyExecUpdates(&command.Status, &command.Result, &command.Error,
		&started, &command.CompletedAt, updates)
	if v, ok := updates["execution_time"]; ok {
		command.ExecutionTime = v.(float64)
	}
	return nil
}

func (f *fakeCommandRepo) UpdateWithLock(commandID string, mutate func(*models.Command) (map[string]interface{}, error)) error {
	command, ok := f.commands[commandID]
	if !ok {
		return base.NewEntityNotFoundError("commands", commandID)
	}
	snapshot := *command
	updates, err := mutate(&snapshot)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	return f.Update(commandID, updates)
}

type fakeAlertRepo struct {
	alerts []models.Alert
}

func (f *fakeAlertRepo) Create(alert *models.Alert) error {
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAlertRepo) ListByRobot(robotID string, limit, offset int) ([]models.Alert, error) {
	return f.alerts, nil
}

type fakeTelemetryRepo struct {
	records []models.TelemetryRecord
}

func (f *fakeTelemetryRepo) CreateBatch(records []models.TelemetryRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeTelemetryRepo) ListByRobot(robotID string, limit, offset int) ([]models.TelemetryRecord, error) {
	return f.records, nil
}

type fakePublisher struct {
	published []publishedMessage
}

type publishedMessage struct {
	topic   string
	message interface{}
}

func (f *fakePublisher) Publish(topic string, message interface{}) error {
	f.published = append(f.published, publishedMessage{topic, message})
	return nil
}

type handlerFixture struct {
	handler   *MessageHandler
	robots    *fakeRobotRepo
	comps     *fakeComponentRepo
	actions   *fakeActionRepo
	steps     *fakeStepRepo
	commands  *fakeCommandRepo
	alerts    *fakeAlertRepo
	telemetry *fakeTelemetryRepo
	publisher *fakePublisher
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		robots:    newFakeRobotRepo(),
		comps:     newFakeComponentRepo(),
		actions:   newFakeActionRepo(),
		steps:     newFakeStepRepo(),
		commands:  newFakeCommandRepo(),
		alerts:    &fakeAlertRepo{},
		telemetry: &fakeTelemetryRepo{},
		publisher: &fakePublisher{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.handler = NewMessageHandler(
		f.robots, f.comps, f.actions, f.steps,
		f.commands, f.alerts, f.telemetry,
		nil, f.publisher, logger,
	)
	return f
}

func (f *handlerFixture) seedRobot(robotID string) {
	f.robots.robots[robotID] = &models.Robot{
		RobotID: robotID,
		Status:  models.RobotStatusOffline,
	}
}

func (f *handlerFixture) seedChain(robotID, componentID, actionID string) {
	f.seedRobot(robotID)
	f.comps.components[componentID] = &models.Component{
		ComponentID: componentID,
		RobotID:     robotID,
		Status:      models.ComponentStatusActive,
	}
	f.actions.actions[actionID] = &models.Action{
		ActionID:    actionID,
		ComponentID: componentID,
		Status:      models.ExecStatusInProgress,
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandleRobotStatus(t *testing.T) {
	t.Run("updates status and publishes heartbeat ack", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedRobot("r1")
		f.commands.commands["c1"] = &models.Command{
			CommandID: "c1", RobotID: "r1", Status: models.ExecStatusPending,
		}

		f.handler.HandleMessage("robots/r1/heartbeat", mustJSON(t, map[string]interface{}{
			"status": "online",
		}))

		if got := f.robots.robots["r1"].Status; got != models.RobotStatusOnline {
			t.Errorf("status = %s, want ONLINE", got)
		}
		if len(f.publisher.published) != 1 {
			t.Fatalf("published %d messages, want 1", len(f.publisher.published))
		}
		msg := f.publisher.published[0]
		if msg.topic != "robots/r1/heartbeat/ack" {
			t.Errorf("topic = %s", msg.topic)
		}
		ack := msg.message.(models.HeartbeatAck)
		if !ack.CommandsPending {
			t.Error("expected commands_pending = true")
		}
	})

	t.Run("unknown robot is dropped", func(t *testing.T) {
		f := newHandlerFixture()
		f.handler.HandleMessage("robots/ghost/status", mustJSON(t, map[string]interface{}{
			"status": "online",
		}))
		if len(f.publisher.published) != 0 {
			t.Error("nothing should be published for an unknown robot")
		}
	})

	t.Run("unknown status falls back to OFFLINE", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedRobot("r1")
		f.handler.HandleMessage("robots/r1/status", mustJSON(t, map[string]interface{}{
			"status": "levitating",
		}))
		if got := f.robots.robots["r1"].Status; got != models.RobotStatusOffline {
			t.Errorf("status = %s, want OFFLINE", got)
		}
	})
}

func TestHandleLocationUpdate(t *testing.T) {
	t.Run("appends a location record", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedRobot("r1")
		f.handler.HandleMessage("robot/r1/location", mustJSON(t, map[string]interface{}{
			"robot_id": "r1",
			"location": []float64{3.5, -1.25},
		}))
		if len(f.robots.locations) != 1 {
			t.Fatalf("got %d location records, want 1", len(f.robots.locations))
		}
		record := f.robots.locations[0]
		if record.X != 3.5 || record.Y != -1.25 {
			t.Errorf("location = (%v, %v)", record.X, record.Y)
		}
	})

	t.Run("bad timestamp degrades to now", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedRobot("r1")
		before := time.Now().Add(-time.Second)
		f.handler.HandleMessage("robot/r1/location", mustJSON(t, map[string]interface{}{
			"robot_id":  "r1",
			"location":  []float64{1, 2},
			"timestamp": "not-a-time",
		}))
		if len(f.robots.locations) != 1 {
			t.Fatal("record was not stored")
		}
		if f.robots.locations[0].Timestamp.Before(before) {
			t.Error("timestamp should have degraded to the current time")
		}
	})

	t.Run("missing coordinates default to origin", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedRobot("r1")
		f.handler.HandleMessage("robot/r1/location", mustJSON(t, map[string]interface{}{
			"robot_id": "r1",
		}))
		if len(f.robots.locations) != 1 {
			t.Fatal("record was not stored")
		}
		if f.robots.locations[0].X != 0 || f.robots.locations[0].Y != 0 {
			t.Error("expected origin coordinates")
		}
	})
}

func TestHandleActionStatus(t *testing.T) {
	t.Run("terminal status is sticky", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedChain("r1", "comp1", "a1")
		f.actions.actions["a1"].Status = models.ExecStatusCompleted

		f.handler.HandleMessage("robot/r1/action/update", mustJSON(t, map[string]interface{}{
			"action_id": "a1",
			"status":    "IN_PROGRESS",
		}))

		if got := f.actions.actions["a1"].Status; got != models.ExecStatusCompleted {
			t.Errorf("status = %s, terminal status must not regress", got)
		}
	})

	t.Run("applies transition and stamps completed_at once", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedChain("r1", "comp1", "a1")

		f.handler.HandleMessage("robot/r1/action/update", mustJSON(t, map[string]interface{}{
			"action_id": "a1",
			"status":    "COMPLETED",
		}))

		action := f.actions.actions["a1"]
		if action.Status != models.ExecStatusCompleted {
			t.Fatalf("status = %s", action.Status)
		}
		if action.CompletedAt == nil {
			t.Fatal("completed_at not stamped")
		}
		first := *action.CompletedAt

		// A duplicate terminal message must not move the timestamp.
		f.handler.HandleMessage("robot/r1/action/update", mustJSON(t, map[string]interface{}{
			"action_id": "a1",
			"status":    "COMPLETED",
		}))
		if !action.CompletedAt.Equal(first) {
			t.Error("duplicate terminal message moved completed_at")
		}
	})
}

func TestHandleStepStatus(t *testing.T) {
	t.Run("failed step emits a high severity alert", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedChain("r1", "comp1", "a1")
		f.steps.steps["s1"] = &models.Step{
			StepID: "s1", ActionID: "a1", Sequence: 1,
			Status: models.ExecStatusInProgress,
		}

		f.handler.HandleMessage("robots/r1/step", mustJSON(t, map[string]interface{}{
			"step_id": "s1",
			"status":  "FAILED",
			"error":   "gripper jam",
		}))

		if len(f.alerts.alerts) != 1 {
			t.Fatalf("got %d alerts, want 1", len(f.alerts.alerts))
		}
		alert := f.alerts.alerts[0]
		if alert.Type != models.AlertTypeStepFailure {
			t.Errorf("alert type = %s", alert.Type)
		}
		if alert.Severity != models.SeverityHigh {
			t.Errorf("severity = %s, want HIGH", alert.Severity)
		}
		if alert.RobotID != "r1" {
			t.Errorf("robot_id = %s, want r1", alert.RobotID)
		}

		var details map[string]string
		if err := json.Unmarshal(alert.Details, &details); err != nil {
			t.Fatal(err)
		}
		if details["step_id"] != "s1" || details["action_id"] != "a1" {
			t.Errorf("details = %v", details)
		}
		if details["error"] != "gripper jam" {
			t.Errorf("error detail = %q", details["error"])
		}
	})

	t.Run("duplicate failure emits no second alert", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedChain("r1", "comp1", "a1")
		f.steps.steps["s1"] = &models.Step{
			StepID: "s1", ActionID: "a1", Sequence: 1,
			Status: models.ExecStatusInProgress,
		}

		payload := mustJSON(t, map[string]interface{}{
			"step_id": "s1", "status": "FAILED", "error": "gripper jam",
		})
		f.handler.HandleMessage("robots/r1/step", payload)
		f.handler.HandleMessage("robots/r1/step", payload)

		if len(f.alerts.alerts) != 1 {
			t.Errorf("got %d alerts, want exactly 1", len(f.alerts.alerts))
		}
	})

	t.Run("last completing step completes the action", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedChain("r1", "comp1", "a1")
		f.steps.steps["s1"] = &models.Step{
			StepID: "s1", ActionID: "a1", Sequence: 1,
			Status: models.ExecStatusCompleted,
		}
		f.steps.steps["s2"] = &models.Step{
			StepID: "s2", ActionID: "a1", Sequence: 2,
			Status: models.ExecStatusInProgress,
		}

		f.handler.HandleMessage("robots/r1/step", mustJSON(t, map[string]interface{}{
			"step_id": "s2",
			"status":  "COMPLETED",
		}))

		action := f.actions.actions["a1"]
		if action.Status != models.ExecStatusCompleted {
			t.Errorf("action status = %s, want COMPLETED", action.Status)
		}
		if action.CompletedAt == nil {
			t.Error("action completed_at not stamped")
		}
	})

	t.Run("action stays open while steps remain", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedChain("r1", "comp1", "a1")
		f.steps.steps["s1"] = &models.Step{
			StepID: "s1", ActionID: "a1", Sequence: 1,
			Status: models.ExecStatusPending,
		}
		f.steps.steps["s2"] = &models.Step{
			StepID: "s2", ActionID: "a1", Sequence: 2,
			Status: models.ExecStatusPending,
		}

		f.handler.HandleMessage("robots/r1/step", mustJSON(t, map[string]interface{}{
			"step_id": "s1",
			"status":  "COMPLETED",
		}))

		if got := f.actions.actions["a1"].Status; got != models.ExecStatusInProgress {
			t.Errorf("action status = %s, want IN_PROGRESS", got)
		}
	})

	t.Run("out of order completion still converges", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedChain("r1", "comp1", "a1")
		for _, id := range []string{"s1", "s2", "s3"} {
			f.steps.steps[id] = &models.Step{
				StepID: id, ActionID: "a1",
				Status: models.ExecStatusPending,
			}
		}
		f.steps.steps["s1"].Sequence = 1
		f.steps.steps["s2"].Sequence = 2
		f.steps.steps["s3"].Sequence = 3

		// Steps report out of sequence order.
		for _, id := range []string{"s2", "s3"} {
			f.handler.HandleMessage("robots/r1/step", mustJSON(t, map[string]interface{}{
				"step_id": id, "status": "COMPLETED",
			}))
			if got := f.actions.actions["a1"].Status; got == models.ExecStatusCompleted {
				t.Fatalf("action completed after %s while steps remain", id)
			}
		}

		f.handler.HandleMessage("robots/r1/step", mustJSON(t, map[string]interface{}{
			"step_id": "s1", "status": "COMPLETED",
		}))

		action := f.actions.actions["a1"]
		if action.Status != models.ExecStatusCompleted {
			t.Errorf("action status = %s, want COMPLETED", action.Status)
		}
		first := *action.CompletedAt

		// A late duplicate step report must not re-complete the action.
		f.handler.HandleMessage("robots/r1/step", mustJSON(t, map[string]interface{}{
			"step_id": "s1", "status": "COMPLETED",
		}))
		if !action.CompletedAt.Equal(first) {
			t.Error("action completed more than once")
		}
	})
}

func TestHandleCommandResult(t *testing.T) {
	t.Run("first terminal result wins", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedRobot("r1")
		f.commands.commands["c1"] = &models.Command{
			CommandID: "c1", RobotID: "r1", Status: models.ExecStatusInProgress,
		}

		f.handler.HandleCommandResult(mustJSON(t, map[string]interface{}{
			"command_id": "c1",
			"status":     "COMPLETED",
		}))
		f.handler.HandleCommandResult(mustJSON(t, map[string]interface{}{
			"command_id": "c1",
			"status":     "FAILED",
			"error":      "late duplicate",
		}))

		command := f.commands.commands["c1"]
		if command.Status != models.ExecStatusCompleted {
			t.Errorf("status = %s, first terminal result must win", command.Status)
		}
		if len(f.alerts.alerts) != 0 {
			t.Error("ignored duplicate must not emit an alert")
		}
	})

	t.Run("failed command emits one alert", func(t *testing.T) {
		f := newHandlerFixture()
		f.seedRobot("r1")
		f.commands.commands["c1"] = &models.Command{
			CommandID: "c1", RobotID: "r1", Status: models.ExecStatusInProgress,
		}

		payload := mustJSON(t, map[string]interface{}{
			"command_id": "c1", "status": "FAILED", "error": "timeout",
		})
		f.handler.HandleCommandResult(payload)
		f.handler.HandleCommandResult(payload)

		if f.commands.commands["c1"].Status != models.ExecStatusFailed {
			t.Errorf("status = %s", f.commands.commands["c1"].Status)
		}
		if len(f.alerts.alerts) != 1 {
			t.Fatalf("got %d alerts, want 1", len(f.alerts.alerts))
		}
		if f.alerts.alerts[0].Type != models.AlertTypeCommandFailure {
			t.Errorf("alert type = %s", f.alerts.alerts[0].Type)
		}
	})

	t.Run("unknown command is dropped", func(t *testing.T) {
		f := newHandlerFixture()
		f.handler.HandleCommandResult(mustJSON(t, map[string]interface{}{
			"command_id": "ghost",
			"status":     "COMPLETED",
		}))
		if len(f.alerts.alerts) != 0 {
			t.Error("no alert expected for unknown command")
		}
	})
}

func TestHandleTelemetry(t *testing.T) {
	f := newHandlerFixture()
	f.seedRobot("r1")

	f.handler.HandleTelemetryData(mustJSON(t, map[string]interface{}{
		"robot_id": "r1",
		"data": []map[string]interface{}{
			{"data": map[string]interface{}{"battery": 87}},
			{"data": map[string]interface{}{"battery": 86}},
		},
	}))

	if len(f.telemetry.records) != 2 {
		t.Errorf("got %d records, want 2", len(f.telemetry.records))
	}
}

func TestHandleAlert(t *testing.T) {
	f := newHandlerFixture()
	f.seedRobot("r1")

	f.handler.HandleMessage("robots/r1/alert", mustJSON(t, map[string]interface{}{
		"alert_type": "BATTERY",
		"severity":   "warning",
		"message":    "battery low",
	}))

	if len(f.alerts.alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(f.alerts.alerts))
	}
	alert := f.alerts.alerts[0]
	if alert.Type != models.AlertTypeBattery {
		t.Errorf("type = %s", alert.Type)
	}
	if alert.Severity != models.SeverityMedium {
		t.Errorf("severity = %s, legacy warning maps to MEDIUM", alert.Severity)
	}
}

func TestHandleMessageMalformed(t *testing.T) {
	f := newHandlerFixture()
	f.seedRobot("r1")

	// None of these may panic or mutate state.
	f.handler.HandleMessage("robots/r1/heartbeat", []byte(`{"status":`))
	f.handler.HandleMessage("bogus", []byte(`{}`))
	f.handler.HandleMessage("robots/r1/unknown_kind", []byte(`{}`))

	if f.robots.robots["r1"].Status != models.RobotStatusOffline {
		t.Error("malformed input must not change state")
	}
}

func TestHandleComponentStatus(t *testing.T) {
	f := newHandlerFixture()
	f.seedChain("r1", "comp1", "a1")

	// A message for an unknown component is dropped and must not poison
	// the pipeline for the valid message that follows.
	f.handler.HandleMessage("robot/r1/component/status", mustJSON(t, map[string]interface{}{
		"component_id": "ghost",
		"status":       "error",
	}))

	f.handler.HandleMessage("robot/r1/component/status", mustJSON(t, map[string]interface{}{
		"component_id":    "comp1",
		"status":          "error",
		"diagnosis_state": "critical",
	}))

	component := f.comps.components["comp1"]
	if component.Status != models.ComponentStatusError {
		t.Errorf("status = %s", component.Status)
	}
	if component.DiagnosisState != models.DiagnosisCritical {
		t.Errorf("diagnosis = %s", component.DiagnosisState)
	}
}

func TestRobotLifecycleScenario(t *testing.T) {
	f := newHandlerFixture()
	f.seedRobot("r1")
	f.comps.components["comp1"] = &models.Component{
		ComponentID: "comp1", RobotID: "r1", Status: models.ComponentStatusActive,
	}
	f.actions.actions["a1"] = &models.Action{
		ActionID: "a1", ComponentID: "comp1", Status: models.ExecStatusPending,
	}
	f.steps.steps["s1"] = &models.Step{
		StepID: "s1", ActionID: "a1", Sequence: 1, Status: models.ExecStatusPending,
	}
	f.steps.steps["s2"] = &models.Step{
		StepID: "s2", ActionID: "a1", Sequence: 2, Status: models.ExecStatusPending,
	}

	f.handler.HandleMessage("robots/r1/heartbeat", mustJSON(t, map[string]interface{}{
		"status": "online",
	}))
	if f.robots.robots["r1"].Status != models.RobotStatusOnline {
		t.Fatal("heartbeat should set the robot ONLINE")
	}

	f.handler.HandleMessage("robots/r1/step", mustJSON(t, map[string]interface{}{
		"step_id": "s1", "status": "COMPLETED",
	}))
	if f.actions.actions["a1"].Status == models.ExecStatusCompleted {
		t.Fatal("action completed with a step still pending")
	}

	f.handler.HandleMessage("robots/r1/step", mustJSON(t, map[string]interface{}{
		"step_id": "s2", "status": "COMPLETED",
	}))

	action := f.actions.actions["a1"]
	if action.Status != models.ExecStatusCompleted {
		t.Errorf("action status = %s, want COMPLETED", action.Status)
	}
	if action.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
}

package handlers

import (
	"net/http"
	"time"

	"fleet-bridge/services"
	"fleet-bridge/utils"

	"github.com/labstack/echo/v4"
)

// APIHandler exposes the fleet backend over REST.
type APIHandler struct {
	robotService   *services.RobotService
	commandService *services.CommandService
	fleetService   *services.FleetService
	startedAt      time.Time
}

func NewAPIHandler(
	robotService *services.RobotService,
	commandService *services.CommandService,
	fleetService *services.FleetService,
) *APIHandler {
	return &APIHandler{
		robotService:   robotService,
		commandService: commandService,
		fleetService:   fleetService,
		startedAt:      time.Now().UTC(),
	}
}

// RegisterRoutes mounts every endpoint under /api/v1.
func (h *APIHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.GET("/health", h.HealthCheck)

	// Robot-facing endpoints, the synchronous twins of the broker topics.
	api.POST("/robots/register", h.RegisterRobot)
	api.POST("/robots/heartbeat", h.Heartbeat)
	api.POST("/robots/telemetry", h.IngestTelemetry)
	api.POST("/robots/alert", h.IngestAlert)
	api.POST("/robots/command_result", h.ApplyCommandResult)

	// Fleet queries.
	api.GET("/robots", h.ListRobots)
	api.GET("/robots/:robotId", h.GetRobot)
	api.DELETE("/robots/:robotId", h.DeleteRobot)
	api.GET("/robots/:robotId/location", h.GetRobotLocation)
	api.GET("/robots/:robotId/telemetry", h.ListTelemetry)
	api.GET("/robots/:robotId/alerts", h.ListAlerts)

	// Command dispatch and tracking.
	api.POST("/robots/:robotId/commands", h.DispatchCommand)
	api.GET("/robots/:robotId/commands", h.ListCommands)
	api.GET("/robots/:robotId/commands/pending", h.PollCommands)
	api.GET("/commands/:commandId", h.GetCommand)
	api.POST("/commands/:commandId/cancel", h.CancelCommand)

	// Component / action / step hierarchy.
	api.POST("/robots/:robotId/components", h.CreateComponent)
	api.GET("/robots/:robotId/components", h.ListComponents)
	api.GET("/components/:componentId", h.GetComponent)
	api.PATCH("/components/:componentId", h.UpdateComponent)
	api.DELETE("/components/:componentId", h.DeleteComponent)
	api.POST("/components/:componentId/actions", h.CreateAction)
	api.GET("/components/:componentId/actions", h.ListActions)
	api.GET("/actions/:actionId", h.GetAction)
	api.DELETE("/actions/:actionId", h.DeleteAction)
	api.GET("/actions/:actionId/steps", h.ListSteps)
	api.GET("/steps/:stepId", h.GetStep)
}

func (h *APIHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, utils.SuccessResponse("ok", map[string]interface{}{
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	}))
}

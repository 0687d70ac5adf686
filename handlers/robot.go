package handlers

import (
	"fmt"
	"net/http"

	"fleet-bridge/models"
	"fleet-bridge/repositories/base"
	"fleet-bridge/utils"

	"github.com/labstack/echo/v4"
)

func (h *APIHandler) RegisterRobot(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.RobotID == "" || req.RobotName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "robot_id and robot_name are required")
	}

	resp, err := h.robotService.Register(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to register robot: %v", err))
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *APIHandler) Heartbeat(c echo.Context) error {
	var req models.HeartbeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.RobotID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "robot_id is required")
	}

	resp, err := h.robotService.Heartbeat(&req)
	if err != nil {
		return mapServiceError(c, "robot", req.RobotID, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) IngestTelemetry(c echo.Context) error {
	var req models.TelemetryBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.RobotID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "robot_id is required")
	}

	resp, err := h.robotService.IngestTelemetry(&req)
	if err != nil {
		return mapServiceError(c, "robot", req.RobotID, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) IngestAlert(c echo.Context) error {
	var req models.AlertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.RobotID == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "robot_id and message are required")
	}

	resp, err := h.robotService.IngestAlert(&req)
	if err != nil {
		return mapServiceError(c, "robot", req.RobotID, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *APIHandler) ListRobots(c echo.Context) error {
	pagination := utils.GetPaginationParams(c.QueryParam("limit"), c.QueryParam("offset"), 50)

	robots, err := h.robotService.ListRobots(pagination.Limit, pagination.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to list robots: %v", err))
	}
	return c.JSON(http.StatusOK, utils.ListResponse{Items: robots, Count: len(robots)})
}

func (h *APIHandler) GetRobot(c echo.Context) error {
	robotID := c.Param("robotId")
	robot, err := h.robotService.GetRobot(robotID)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusOK, robot)
}

func (h *APIHandler) DeleteRobot(c echo.Context) error {
	robotID := c.Param("robotId")
	if err := h.robotService.DeleteRobot(robotID); err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Robot deleted", nil))
}

func (h *APIHandler) GetRobotLocation(c echo.Context) error {
	robotID := c.Param("robotId")
	location, err := h.robotService.LatestLocation(robotID)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusOK, location)
}

func (h *APIHandler) ListTelemetry(c echo.Context) error {
	robotID := c.Param("robotId")
	pagination := utils.GetPaginationParams(c.QueryParam("limit"), c.QueryParam("offset"), 100)

	records, err := h.robotService.ListTelemetry(robotID, pagination.Limit, pagination.Offset)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusOK, utils.ListResponse{Items: records, Count: len(records)})
}

func (h *APIHandler) ListAlerts(c echo.Context) error {
	robotID := c.Param("robotId")
	pagination := utils.GetPaginationParams(c.QueryParam("limit"), c.QueryParam("offset"), 50)

	alerts, err := h.robotService.ListAlerts(robotID, pagination.Limit, pagination.Offset)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusOK, utils.ListResponse{Items: alerts, Count: len(alerts)})
}

// mapServiceError turns repository not-found errors into 404s and
// everything else into 500s.
func mapServiceError(c echo.Context, entity, id string, err error) error {
	if base.IsEntityNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s %s not found", entity, id))
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

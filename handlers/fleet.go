package handlers

import (
	"net/http"

	"fleet-bridge/models"
	"fleet-bridge/utils"

	"github.com/labstack/echo/v4"
)

func (h *APIHandler) CreateComponent(c echo.Context) error {
	robotID := c.Param("robotId")

	var req models.CreateComponentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	component, err := h.fleetService.CreateComponent(robotID, &req)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusCreated, component)
}

func (h *APIHandler) ListComponents(c echo.Context) error {
	robotID := c.Param("robotId")
	components, err := h.fleetService.ListComponents(robotID)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusOK, utils.ListResponse{Items: components, Count: len(components)})
}

func (h *APIHandler) GetComponent(c echo.Context) error {
	componentID := c.Param("componentId")
	component, err := h.fleetService.GetComponent(componentID)
	if err != nil {
		return mapServiceError(c, "component", componentID, err)
	}
	return c.JSON(http.StatusOK, component)
}

func (h *APIHandler) UpdateComponent(c echo.Context) error {
	componentID := c.Param("componentId")

	var req models.UpdateComponentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	component, err := h.fleetService.UpdateComponent(componentID, &req)
	if err != nil {
		return mapServiceError(c, "component", componentID, err)
	}
	return c.JSON(http.StatusOK, component)
}

func (h *APIHandler) DeleteComponent(c echo.Context) error {
	componentID := c.Param("componentId")
	if err := h.fleetService.DeleteComponent(componentID); err != nil {
		return mapServiceError(c, "component", componentID, err)
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Component deleted", nil))
}

func (h *APIHandler) CreateAction(c echo.Context) error {
	componentID := c.Param("componentId")

	var req models.CreateActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	action, err := h.fleetService.CreateAction(componentID, &req)
	if err != nil {
		return mapServiceError(c, "component", componentID, err)
	}
	return c.JSON(http.StatusCreated, action)
}

func (h *APIHandler) ListActions(c echo.Context) error {
	componentID := c.Param("componentId")
	actions, err := h.fleetService.ListActions(componentID)
	if err != nil {
		return mapServiceError(c, "component", componentID, err)
	}
	return c.JSON(http.StatusOK, utils.ListResponse{Items: actions, Count: len(actions)})
}

func (h *APIHandler) GetAction(c echo.Context) error {
	actionID := c.Param("actionId")
	action, err := h.fleetService.GetAction(actionID)
	if err != nil {
		return mapServiceError(c, "action", actionID, err)
	}
	return c.JSON(http.StatusOK, action)
}

func (h *APIHandler) DeleteAction(c echo.Context) error {
	actionID := c.Param("actionId")
	if err := h.fleetService.DeleteAction(actionID); err != nil {
		return mapServiceError(c, "action", actionID, err)
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Action deleted", nil))
}

func (h *APIHandler) ListSteps(c echo.Context) error {
	actionID := c.Param("actionId")
	steps, err := h.fleetService.ListSteps(actionID)
	if err != nil {
		return mapServiceError(c, "action", actionID, err)
	}
	return c.JSON(http.StatusOK, utils.ListResponse{Items: steps, Count: len(steps)})
}

func (h *APIHandler) GetStep(c echo.Context) error {
	stepID := c.Param("stepId")
	step, err := h.fleetService.GetStep(stepID)
	if err != nil {
		return mapServiceError(c, "step", stepID, err)
	}
	return c.JSON(http.StatusOK, step)
}

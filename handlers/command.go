package handlers

import (
	"net/http"

	"fleet-bridge/models"
	"fleet-bridge/utils"

	"github.com/labstack/echo/v4"
)

func (h *APIHandler) DispatchCommand(c echo.Context) error {
	robotID := c.Param("robotId")

	var req models.DispatchCommandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.CommandType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "command_type is required")
	}

	command, err := h.commandService.Dispatch(robotID, &req)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusCreated, command)
}

func (h *APIHandler) ApplyCommandResult(c echo.Context) error {
	var req models.CommandResultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.CommandID == "" || req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "command_id and status are required")
	}

	resp, err := h.commandService.ApplyResult(&req)
	if err != nil {
		return mapServiceError(c, "command", req.CommandID, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) PollCommands(c echo.Context) error {
	robotID := c.Param("robotId")
	resp, err := h.commandService.Poll(robotID)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *APIHandler) ListCommands(c echo.Context) error {
	robotID := c.Param("robotId")
	pagination := utils.GetPaginationParams(c.QueryParam("limit"), c.QueryParam("offset"), 50)

	commands, err := h.commandService.ListCommands(robotID, pagination.Limit, pagination.Offset)
	if err != nil {
		return mapServiceError(c, "robot", robotID, err)
	}
	return c.JSON(http.StatusOK, utils.ListResponse{Items: commands, Count: len(commands)})
}

func (h *APIHandler) GetCommand(c echo.Context) error {
	commandID := c.Param("commandId")
	command, err := h.commandService.GetCommand(commandID)
	if err != nil {
		return mapServiceError(c, "command", commandID, err)
	}
	return c.JSON(http.StatusOK, command)
}

func (h *APIHandler) CancelCommand(c echo.Context) error {
	commandID := c.Param("commandId")
	command, err := h.commandService.Cancel(commandID)
	if err != nil {
		return mapServiceError(c, "command", commandID, err)
	}
	return c.JSON(http.StatusOK, command)
}

package agent

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicalsetu/clinicalsetu/internal/domain/consultation"
)

// Handler exposes the agentic path over HTTP: the consultation endpoint for
// clients, and the tool endpoint the agent platform calls back into.
type Handler struct {
	svc  *Service
	exec *Executor
}

// NewHandler builds the handler. Either dependency may be nil; the matching
// routes are then not mounted.
func NewHandler(svc *Service, exec *Executor) *Handler {
	return &Handler{svc: svc, exec: exec}
}

// RegisterRoutes mounts the agentic endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	if h.svc != nil {
		api.POST("/consultations/agent", h.Process)
	}
	if h.exec != nil {
		api.POST("/agent-tools", h.ExecuteTool)
	}
}

// Process runs one consultation through the remote agent. The error taxonomy
// matches the sequential endpoint: missing fields and bad JSON are 400,
// agent failures are 500, and every error body carries the disclaimer.
func (h *Handler) Process(c echo.Context) error {
	var req consultation.Request
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid JSON in request: "+err.Error())
	}

	env, err := h.svc.Process(c.Request().Context(), &req)
	if err != nil {
		var missing *consultation.MissingFieldError
		if errors.As(err, &missing) {
			return errorJSON(c, http.StatusBadRequest, missing.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, env)
}

// ExecuteTool answers one action-group dispatch from the agent platform.
// The response is always 200 with the platform envelope; tool failures are
// signaled inside it, never via HTTP status.
func (h *Handler) ExecuteTool(c echo.Context) error {
	var ev ToolEvent
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tool event")
	}
	return c.JSON(http.StatusOK, h.exec.Execute(c.Request().Context(), &ev))
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, consultation.ErrorEnvelope{
		Error:      message,
		Disclaimer: consultation.ShortDisclaimer,
	})
}

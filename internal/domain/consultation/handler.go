package consultation

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicalsetu/clinicalsetu/pkg/pagination"
)

// Handler exposes the sequential pipeline over HTTP.
type Handler struct {
	pipeline *Pipeline
	records  RecordLister
}

// RecordLister reads back persisted consultation records. May be nil when no
// database is configured.
type RecordLister interface {
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
}

// NewHandler builds the handler. records may be nil.
func NewHandler(pipeline *Pipeline, records RecordLister) *Handler {
	return &Handler{pipeline: pipeline, records: records}
}

// RegisterRoutes mounts the consultation endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/consultations/process", h.Process)
	if h.records != nil {
		api.GET("/consultations/records", h.ListRecords)
	}
}

// Process runs the four-stage pipeline for one consultation.
//
// Error taxonomy: missing required fields and malformed request JSON are 400;
// everything else, including model output that fails to parse, is 500. Every
// error body repeats the short disclaimer.
func (h *Handler) Process(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid JSON in request: "+err.Error())
	}

	env, err := h.pipeline.Process(c.Request().Context(), &req)
	if err != nil {
		var missing *MissingFieldError
		if errors.As(err, &missing) {
			return errorJSON(c, http.StatusBadRequest, missing.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, env)
}

// ListRecords returns recently persisted envelopes, newest first.
func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.records.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// errorJSON writes the fixed error envelope. The disclaimer repeats on every
// failure so error responses read like success responses.
func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorEnvelope{
		Error:      message,
		Disclaimer: ShortDisclaimer,
	})
}

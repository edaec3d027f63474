package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether the database answers
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	data := map[string]string{"database": "up"}
	if err := h.db.PingContext(c.Request().Context()); err != nil {
		data["database"] = "down"
		return c.JSON(http.StatusServiceUnavailable, Response{Status: "error", Message: "Service unavailable.", Data: data})
	}
	return success(c, http.StatusOK, "Service is healthy.", data)
}

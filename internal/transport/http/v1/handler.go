// Package v1 provides the versioned HTTP handlers for the coordinator.
package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/convoflow/coordinator/internal/broker"
	"github.com/convoflow/coordinator/internal/domain"
	"github.com/convoflow/coordinator/internal/fsm"
	"github.com/convoflow/coordinator/internal/store"
)

// Handler handles HTTP requests.
type Handler struct {
	fsm         *fsm.FSM
	store       store.Store
	broker      broker.Broker
	pollTimeout time.Duration
}

// NewHandler creates a new handler. pollTimeout bounds each wait for the
// next stream event before a keepalive is sent.
func NewHandler(f *fsm.FSM, st store.Store, br broker.Broker, pollTimeout time.Duration) *Handler {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Handler{
		fsm:         f,
		store:       st,
		broker:      br,
		pollTimeout: pollTimeout,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/users/:user_id/messages", h.SubmitMessage)
	e.GET("/v1/sessions/:session_id/stream", h.StreamSession)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.GET("/v1/users/:user_id/sessions", h.ListUserSessions)
	e.DELETE("/v1/sessions/:session_id", h.DeleteSession)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorJSON translates the error taxonomy into a request-level rejection.
func errorJSON(c echo.Context, err error) error {
	var transitionErr *domain.StateTransitionError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrOwnershipMismatch):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.As(err, &transitionErr):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

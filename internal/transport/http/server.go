// Package http provides the HTTP server for the coordinator.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	v1 "github.com/convoflow/coordinator/internal/transport/http/v1"
	"github.com/convoflow/coordinator/internal/transport/ws"
)

// NewServer creates and configures the client-facing HTTP server.
func NewServer(v1Handler *v1.Handler, wsHandler *ws.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Register routes
	v1Handler.RegisterRoutes(e)
	wsHandler.RegisterRoutes(e)

	return e
}

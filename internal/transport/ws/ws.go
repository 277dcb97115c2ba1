// Package ws provides a WebSocket alternative to the SSE stream: the same
// per-session event relay delivered as JSON frames.
package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/convoflow/coordinator/internal/broker"
	"github.com/convoflow/coordinator/internal/domain"
	"github.com/convoflow/coordinator/internal/store"
)

const writeTimeout = 10 * time.Second

// Frame is a single stream event on the wire.
type Frame struct {
	Type string `json:"type"`
	Ts   int64  `json:"ts"`
	Data string `json:"data"`
}

// Handler handles WebSocket stream connections.
type Handler struct {
	store       store.Store
	broker      broker.Broker
	pollTimeout time.Duration
	upgrader    websocket.Upgrader
}

// NewHandler creates a WebSocket handler. pollTimeout bounds each wait for
// the next event before a ping is sent.
func NewHandler(st store.Store, br broker.Broker, pollTimeout time.Duration) *Handler {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Handler{
		store:       st,
		broker:      br,
		pollTimeout: pollTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers WebSocket routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/sessions/:session_id/ws", h.StreamSession)
}

// StreamSession relays a session's event channel over a WebSocket
// connection until a terminal event or disconnect.
// GET /v1/sessions/:session_id/ws
func (h *Handler) StreamSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	if _, err := h.store.GetSession(c.Request().Context(), sessionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Reads are discarded; the pump only notices the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	queue := h.broker.Subscribe(sessionID)
	defer h.broker.Release(sessionID)

	log.Printf("WebSocket connection opened for session %s", sessionID)
	for {
		event, received := queue.Receive(ctx, h.pollTimeout)
		if !received {
			if ctx.Err() != nil {
				log.Printf("WebSocket connection closed for session %s: client disconnected", sessionID)
				return nil
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return nil
			}
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(Frame{
			Type: string(event.Type),
			Ts:   time.Now().UnixMilli(),
			Data: event.Data,
		}); err != nil {
			log.Printf("ERROR: failed to write event for session %s: %v", sessionID, err)
			return nil
		}

		if event.IsTerminal() {
			log.Printf("WebSocket connection closing for session %s: %s", sessionID, event.Type)
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}

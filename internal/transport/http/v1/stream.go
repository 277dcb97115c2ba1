package v1

import (
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/convoflow/coordinator/internal/domain"
)

// StreamSession relays a session's event channel to the client as
// Server-Sent Events until a terminal event or disconnect.
// GET /v1/sessions/:session_id/stream
func (h *Handler) StreamSession(c echo.Context) error {
	sessionID := c.Param("session_id")
	ctx := c.Request().Context()

	if _, err := h.store.GetSession(ctx, sessionID); err != nil {
		return errorJSON(c, err)
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	queue := h.broker.Subscribe(sessionID)
	// The channel is torn down on every exit path: terminal event,
	// disconnect or write failure.
	defer h.broker.Release(sessionID)

	log.Printf("SSE connection opened for session %s", sessionID)
	for {
		event, received := queue.Receive(ctx, h.pollTimeout)
		if !received {
			if ctx.Err() != nil {
				log.Printf("SSE connection closed for session %s: client disconnected", sessionID)
				return nil
			}
			// Idle wait elapsed; keep the transport connection alive.
			if _, err := io.WriteString(c.Response().Writer, domain.SSEKeepalive); err != nil {
				return nil
			}
			flusher.Flush()
			continue
		}

		if _, err := io.WriteString(c.Response().Writer, event.SSE()); err != nil {
			log.Printf("ERROR: failed to write event for session %s: %v", sessionID, err)
			return nil
		}
		flusher.Flush()

		if event.IsTerminal() {
			log.Printf("SSE connection closing for session %s: %s", sessionID, event.Type)
			return nil
		}
	}
}

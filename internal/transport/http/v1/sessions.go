package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SubmitMessageRequest is the body for submitting a user message.
type SubmitMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// SubmitMessageResponse is returned after a message is accepted.
type SubmitMessageResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// SubmitMessage accepts a user message for a session.
// POST /v1/users/:user_id/messages
func (h *Handler) SubmitMessage(c echo.Context) error {
	userID := c.Param("user_id")

	var req SubmitMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	ctx := c.Request().Context()
	session, err := h.fsm.SubmitUserMessage(ctx, userID, req.Message, req.SessionID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, SubmitMessageResponse{
		SessionID: session.ID,
		Status:    "ok",
		Message:   fmt.Sprintf("Message received. Connect to /v1/sessions/%s/stream for response.", session.ID),
	})
}

// GetSession returns the full session snapshot including message history.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	ctx := c.Request().Context()
	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session": session,
	})
}

// ListUserSessions returns all sessions for a user.
// GET /v1/users/:user_id/sessions
func (h *Handler) ListUserSessions(c echo.Context) error {
	userID := c.Param("user_id")

	ctx := c.Request().Context()
	sessions, err := h.store.ListUserSessions(ctx, userID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":  userID,
		"sessions": sessions,
	})
}

// DeleteSession deletes a session.
// DELETE /v1/sessions/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	ctx := c.Request().Context()
	if err := h.store.DeleteSession(ctx, sessionID); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

// chatMessageRequest mirrors the chat payload {userId, role, content, timestamp, sessionId?}.
// userId is optional here; when present it must match X-User-ID.
type chatMessageRequest struct {
	UserID    int64                 `json:"userId"`
	Role      constants.MessageRole `json:"role"`
	Content   string                `json:"content"`
	Timestamp *time.Time            `json:"timestamp"`
	SessionID *int64                `json:"sessionId"`
}

var errUserMismatch = common.NewAppError("USER_MISMATCH", "userId does not match the authenticated user", common.ErrForbidden)

func (h *Handlers) chatMessage(c *gin.Context) (entity.ChatMessage, bool) {
	var req chatMessageRequest
	if !bindJSON(c, &req) {
		return entity.ChatMessage{}, false
	}
	uid := userID(c)
	if req.UserID != 0 && req.UserID != uid {
		writeError(c, h.Logger, "chat.user_mismatch", errUserMismatch)
		return entity.ChatMessage{}, false
	}
	msg := entity.ChatMessage{
		UserID:    uid,
		Role:      req.Role,
		Content:   req.Content,
		SessionID: req.SessionID,
	}
	if msg.Role == "" {
		msg.Role = constants.RoleUser
	}
	if req.Timestamp != nil {
		msg.Timestamp = req.Timestamp.UTC()
	}
	return msg, true
}

func (h *Handlers) recipe(c *gin.Context) {
	msg, ok := h.chatMessage(c)
	if !ok {
		return
	}
	res, err := h.Chat.Reply(c.Request.Context(), msg)
	if err != nil {
		writeError(c, h.Logger, "chat.recipe_failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) message(c *gin.Context) {
	msg, ok := h.chatMessage(c)
	if !ok {
		return
	}
	res, err := h.Chat.ChatWithContext(c.Request.Context(), msg)
	if err != nil {
		writeError(c, h.Logger, "chat.message_failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) listSessions(c *gin.Context) {
	sessions, err := h.Sessions.ListSessions(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.Logger, "chat.sessions_failed", err)
		return
	}
	if sessions == nil {
		sessions = []entity.ChatSession{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handlers) sessionHistory(c *gin.Context) {
	sessionID, ok := h.sessionParam(c)
	if !ok {
		return
	}
	msgs, err := h.Sessions.History(c.Request.Context(), userID(c), sessionID)
	if err != nil {
		writeError(c, h.Logger, "chat.history_failed", err)
		return
	}
	if msgs == nil {
		msgs = []entity.ChatMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handlers) deleteSession(c *gin.Context) {
	sessionID, ok := h.sessionParam(c)
	if !ok {
		return
	}
	if err := h.Sessions.DeleteSession(c.Request.Context(), userID(c), sessionID); err != nil {
		writeError(c, h.Logger, "chat.delete_session_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) sessionParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, h.Logger, "chat.bad_session_id", common.NewAppError("INVALID_SESSION_ID", "session id must be a positive integer", common.ErrInvalidInput))
		return 0, false
	}
	return id, true
}

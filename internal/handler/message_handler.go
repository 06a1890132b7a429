package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/middleware"
	"github.com/skillbridge/skillbridge-backend/internal/service"
	"github.com/skillbridge/skillbridge-backend/pkg/ginutil"
)

// MessageHandler handles thread listing and application-scoped messaging
type MessageHandler struct {
	messages service.MessageService
	threads  service.ThreadService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages service.MessageService, threads service.ThreadService) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		threads:  threads,
	}
}

// ListThreads handles GET /api/v1/threads
// Every application thread the caller participates in, newest activity first
// is left to the client; the list is annotated with unread counts.
func (h *MessageHandler) ListThreads(c *gin.Context) {
	items, err := h.threads.ListThreads(middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to list threads", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: items})
}

// List handles GET /api/v1/applications/:id/messages
func (h *MessageHandler) List(c *gin.Context) {
	applicationID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid application ID", err)
		return
	}

	msgs, err := h.messages.List(applicationID, middleware.GetUserID(c))
	if h.writeThreadError(c, err) {
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: msgs})
}

// Send handles POST /api/v1/applications/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	applicationID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid application ID", err)
		return
	}

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	msg, err := h.messages.Send(applicationID, middleware.GetUserID(c), &req)
	if errors.Is(err, common.ErrInvalidInput) {
		common.ErrorResponse(c, 400, "Message body must not be empty", err)
		return
	}
	if h.writeThreadError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, common.APIResponse{Data: msg})
}

// MarkRead handles PUT /api/v1/applications/:id/messages/read
// Idempotent: repeat calls leave read state and timestamps untouched
func (h *MessageHandler) MarkRead(c *gin.Context) {
	applicationID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid application ID", err)
		return
	}

	if h.writeThreadError(c, h.messages.MarkRead(applicationID, middleware.GetUserID(c))) {
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{
		Data: gin.H{"message": "Thread marked as read"},
	})
}

// Hide handles DELETE /api/v1/applications/:id/messages
// Clears the caller's view of the thread without touching the counterpart's
func (h *MessageHandler) Hide(c *gin.Context) {
	applicationID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid application ID", err)
		return
	}

	if h.writeThreadError(c, h.messages.HideForUser(applicationID, middleware.GetUserID(c))) {
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{
		Data: gin.H{"message": "Thread hidden"},
	})
}

// writeThreadError maps the shared thread authorization errors. Returns
// true when a response was written.
func (h *MessageHandler) writeThreadError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrNotFound) {
		common.ErrorResponse(c, 404, "Application not found", err)
		return true
	}
	if errors.Is(err, common.ErrForbidden) {
		common.ErrorResponse(c, 403, "Not a participant in this thread", err)
		return true
	}
	common.ErrorResponse(c, 500, "Messaging operation failed", err)
	return true
}

package handler

import (
	"net/http"

	"doc-qa-go/internal/middleware"
	"doc-qa-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与对话相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetConversations 处理获取会话对话历史的请求。
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	st := middleware.CurrentSession(c)

	history, err := h.service.GetConversationHistory(c.Request.Context(), st.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to retrieve conversation history")
		return
	}
	ok(c, "success", history)
}

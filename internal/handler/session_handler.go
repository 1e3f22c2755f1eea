package handler

import (
	"net/http"

	"doc-qa-go/internal/service"
	"doc-qa-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SessionHandler 处理会话创建请求。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create 新建一个会话并返回其令牌。
func (h *SessionHandler) Create(c *gin.Context) {
	st, tokenString, err := h.sessionService.Create()
	if err != nil {
		log.Errorf("创建会话失败: %v", err)
		fail(c, http.StatusInternalServerError, "创建会话失败")
		return
	}
	ok(c, "success", gin.H{"token": tokenString, "sessionId": st.ID})
}

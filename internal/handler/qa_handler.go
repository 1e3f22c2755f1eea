package handler

import (
	"net/http"

	"doc-qa-go/internal/middleware"
	"doc-qa-go/internal/service"

	"github.com/gin-gonic/gin"
)

// QAHandler 处理问答请求。
type QAHandler struct {
	qaService service.QAService
}

// NewQAHandler 创建一个新的 QAHandler。
func NewQAHandler(qaService service.QAService) *QAHandler {
	return &QAHandler{qaService: qaService}
}

type queryRequest struct {
	Question string `json:"question"`
}

// Query 回答问题，返回答案、按相似度排列的上下文分块和响应耗时。
func (h *QAHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	st := middleware.CurrentSession(c)
	ans, err := h.qaService.Answer(c.Request.Context(), st, req.Question)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, "success", gin.H{
		"answer":         ans.Text,
		"context":        ans.ContextTexts(),
		"hits":           ans.Context,
		"elapsedSeconds": ans.Elapsed.Seconds(),
	})
}

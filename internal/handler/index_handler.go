package handler

import (
	"doc-qa-go/internal/middleware"
	"doc-qa-go/internal/service"

	"github.com/gin-gonic/gin"
)

// IndexHandler 处理索引构建相关的请求。
type IndexHandler struct {
	qaService service.QAService
}

// NewIndexHandler 创建一个新的 IndexHandler。
func NewIndexHandler(qaService service.QAService) *IndexHandler {
	return &IndexHandler{qaService: qaService}
}

// Build 为当前会话构建索引；已构建时直接返回。
func (h *IndexHandler) Build(c *gin.Context) {
	st := middleware.CurrentSession(c)
	summary, built, err := h.qaService.EnsureIndexBuilt(c.Request.Context(), st)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, "Vector Store DB Is Ready", gin.H{
		"built":   built,
		"summary": summary,
	})
}

// Status 返回当前会话的索引状态。
func (h *IndexHandler) Status(c *gin.Context) {
	st := middleware.CurrentSession(c)
	_, summary := st.Index()
	ok(c, "success", gin.H{
		"ready":   summary != nil,
		"summary": summary,
	})
}

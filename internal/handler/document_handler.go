package handler

import (
	"doc-qa-go/internal/service"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 处理文档来源相关的请求。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// ListDocuments 列出文档来源中的 PDF。
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.documentService.ListDocuments(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, "success", docs)
}

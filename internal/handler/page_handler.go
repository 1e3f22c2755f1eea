package handler

import (
	"net/http"

	"doc-qa-go/internal/web"

	"github.com/gin-gonic/gin"
)

// Page 返回浏览器端页面。
func Page(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

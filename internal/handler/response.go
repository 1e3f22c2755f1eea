// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"doc-qa-go/internal/model"
	"doc-qa-go/internal/service"

	"github.com/gin-gonic/gin"
)

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": message, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}

// statusFor 把领域错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrEmbeddingMismatch):
		return http.StatusConflict
	case errors.Is(err, model.ErrSourceUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// failWith 以错误本身作为提示信息返回，保证失败对用户可见。
func failWith(c *gin.Context, err error) {
	fail(c, statusFor(err), err.Error())
}

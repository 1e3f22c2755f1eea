// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"doc-qa-go/internal/model"
	"doc-qa-go/internal/service"
	"doc-qa-go/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionKey 是会话状态在 gin.Context 中的键。
const SessionKey = "session"

// SessionAuth 创建一个 Gin 中间件，校验 "Bearer <token>" 形式的会话令牌，
// 并将会话状态存入 Gin 的上下文中。
func SessionAuth(sessionService service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 Authorization 请求头中获取 token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未包含授权头", "data": nil})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的授权头格式", "data": nil})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		st, err := sessionService.Resolve(tokenString)
		if err != nil {
			if errors.Is(err, model.ErrSessionNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "会话不存在", "data": nil})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效或已过期的 token", "data": nil})
			return
		}

		c.Set(SessionKey, st)
		c.Next()
	}
}

// CurrentSession 返回 SessionAuth 存入的会话状态。
func CurrentSession(c *gin.Context) *session.State {
	return c.MustGet(SessionKey).(*session.State)
}

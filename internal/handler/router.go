package handler

import (
	"doc-qa-go/internal/middleware"
	"doc-qa-go/internal/service"

	"github.com/gin-gonic/gin"
)

// Services 汇总路由需要的业务服务。
type Services struct {
	QA           service.QAService
	Session      service.SessionService
	Conversation service.ConversationService
	Document     service.DocumentService
}

// NewRouter 创建路由引擎并注册所有路由。
func NewRouter(s Services) *gin.Engine {
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/", Page)

	auth := middleware.SessionAuth(s.Session)
	chat := NewChatHandler(s.QA, s.Session)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/sessions", NewSessionHandler(s.Session).Create)
		apiV1.GET("/documents", NewDocumentHandler(s.Document).ListDocuments)

		// 需要会话令牌的路由
		authed := apiV1.Group("/")
		authed.Use(auth)
		{
			authed.POST("/index", NewIndexHandler(s.QA).Build)
			authed.GET("/index", NewIndexHandler(s.QA).Status)
			authed.POST("/query", NewQAHandler(s.QA).Query)
			authed.GET("/conversation", NewConversationHandler(s.Conversation).GetConversations)
			// 停止令牌按会话签发
			authed.GET("/chat/websocket-token", chat.GetWebsocketStopToken)
		}
	}
	r.GET("/chat/:token", chat.Handle)
	return r
}

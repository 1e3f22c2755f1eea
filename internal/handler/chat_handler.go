package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"doc-qa-go/internal/middleware"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/service"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// busyMessage 在问题队列已满时返回给客户端。
const busyMessage = "上一个问题尚未处理完成，请稍后再试"

// questionQueueSize 是单个连接上等待处理的问题上限。
const questionQueueSize = 8

// ChatHandler 负责处理 WebSocket 聊天连接：每条文本消息是一个问题，答案以增量形式推送。
type ChatHandler struct {
	qaService      service.QAService
	sessionService service.SessionService
	stopTokens     map[string]string // 会话 ID -> 停止令牌
	stopTokenLock  sync.Mutex
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(qaService service.QAService, sessionService service.SessionService) *ChatHandler {
	return &ChatHandler{
		qaService:      qaService,
		sessionService: sessionService,
		stopTokens:     make(map[string]string),
	}
}

// GetWebsocketStopToken 为当前会话签发一个可用于停止流的令牌，覆盖该会话之前的令牌。
func (h *ChatHandler) GetWebsocketStopToken(c *gin.Context) {
	st := middleware.CurrentSession(c)
	cmdToken := "WSS_STOP_CMD_" + token.GenerateRandomString(16)

	h.stopTokenLock.Lock()
	h.stopTokens[st.ID] = cmdToken
	h.stopTokenLock.Unlock()
	ok(c, "success", gin.H{"cmdToken": cmdToken})
}

// parseStopCommand 识别停止指令帧。isStop 表示帧的 type 为 stop，valid 表示令牌属于该会话。
func (h *ChatHandler) parseStopCommand(sessionID string, message []byte) (isStop, valid bool) {
	if len(message) == 0 || message[0] != '{' {
		return false, false
	}
	var ctrl struct {
		Type  string `json:"type"`
		Token string `json:"_internal_cmd_token"`
	}
	if err := json.Unmarshal(message, &ctrl); err != nil || ctrl.Type != "stop" {
		return false, false
	}
	h.stopTokenLock.Lock()
	defer h.stopTokenLock.Unlock()
	expected := h.stopTokens[sessionID]
	return true, expected != "" && ctrl.Token == expected
}

// Handle 处理一个传入的 WebSocket 连接。
func (h *ChatHandler) Handle(c *gin.Context) {
	st, err := h.sessionService.Resolve(c.Param("token"))
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, "会话不存在")
			return
		}
		fail(c, http.StatusUnauthorized, "无效的 token")
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	conn := &safeConn{conn: ws}
	defer ws.Close()
	log.Infof("WebSocket 连接已建立，会话: %s", st.ID)

	// 读协程：停止指令立即生效，问题排队后按顺序处理
	var stopped atomic.Bool
	questions := make(chan string, questionQueueSize)
	go func() {
		defer close(questions)
		for {
			_, message, err := ws.ReadMessage()
			if err != nil {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
				return
			}
			if isStop, valid := h.parseStopCommand(st.ID, message); isStop {
				if !valid {
					log.Warnf("忽略令牌无效的停止指令，会话: %s", st.ID)
					continue
				}
				stopped.Store(true)
				conn.writeJSON(gin.H{
					"type":      "stop",
					"message":   "响应已停止",
					"timestamp": time.Now().UnixMilli(),
				})
				continue
			}
			select {
			case questions <- string(message):
			default:
				conn.writeJSON(gin.H{"error": busyMessage})
			}
		}
	}()

	for question := range questions {
		log.Infof("收到 WebSocket 问题: %s", question)
		stopped.Store(false)
		interceptor := &wsWriterInterceptor{conn: conn, shouldStop: stopped.Load}
		ans, err := h.qaService.StreamAnswer(c.Request.Context(), st, question, interceptor)
		if err != nil {
			log.Errorf("处理流式响应失败: %v", err)
			conn.writeJSON(gin.H{"error": err.Error()})
			conn.writeJSON(completion(nil, 0))
			continue
		}
		conn.writeJSON(completion(ans.ContextTexts(), ans.Elapsed.Seconds()))
	}
}

// completion 构造完成通知，附带检索到的上下文与响应耗时。
func completion(context []string, elapsedSeconds float64) gin.H {
	if context == nil {
		context = []string{}
	}
	return gin.H{
		"type":           "completion",
		"status":         "finished",
		"message":        "响应已完成",
		"context":        context,
		"elapsedSeconds": elapsedSeconds,
		"timestamp":      time.Now().UnixMilli(),
	}
}

// safeConn 串行化对同一连接的写操作。
type safeConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *safeConn) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *safeConn) writeJSON(v interface{}) {
	b, _ := json.Marshal(v)
	if err := s.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("写入 WebSocket 失败: %v", err)
	}
}

// wsWriterInterceptor 将模型输出的原始分块包装为 {"chunk":"..."}。
type wsWriterInterceptor struct {
	conn       *safeConn
	shouldStop func() bool
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *wsWriterInterceptor) WriteMessage(messageType int, data []byte) error {
	if w.shouldStop != nil && w.shouldStop() {
		// 停止标志生效：跳过下发
		return nil
	}
	b, _ := json.Marshal(map[string]string{"chunk": string(data)})
	return w.conn.WriteMessage(messageType, b)
}

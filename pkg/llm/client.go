// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/log"

	"github.com/gorilla/websocket"
	openai "github.com/sashabaranov/go-openai"
)

// MessageWriter defines an interface for writing WebSocket messages.
// This allows both a standard websocket.Conn and our interceptor to be used.
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Client defines the interface for an LLM client.
type Client interface {
	// Complete 发送一次非流式请求，原样返回模型输出的文本。
	Complete(ctx context.Context, messages []Message, gen *GenerationParams) (string, error)
	// StreamChatMessages 以流式方式调用聊天接口，将每个增量写入 writer，并返回拼接后的完整文本。
	StreamChatMessages(ctx context.Context, messages []Message, gen *GenerationParams, writer MessageWriter) (string, error)
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams 控制生成行为
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

type openAICompatibleClient struct {
	cfg    config.LLMConfig
	client *openai.Client
}

// NewClient creates a new LLM client against an OpenAI-compatible chat endpoint.
func NewClient(cfg config.LLMConfig) Client {
	c := &openAICompatibleClient{cfg: cfg}
	if cfg.APIKey != "" {
		oaiCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oaiCfg.BaseURL = cfg.BaseURL
		}
		c.client = openai.NewClientWithConfig(oaiCfg)
	}
	return c
}

func (c *openAICompatibleClient) buildRequest(messages []Message, gen *GenerationParams) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	// 传参优先，否则使用配置中的非零值
	if gen != nil {
		if gen.Temperature != nil {
			req.Temperature = float32(*gen.Temperature)
		}
		if gen.TopP != nil {
			req.TopP = float32(*gen.TopP)
		}
		if gen.MaxTokens != nil {
			req.MaxTokens = *gen.MaxTokens
		}
		return req
	}
	req.Temperature = float32(c.cfg.Generation.Temperature)
	req.TopP = float32(c.cfg.Generation.TopP)
	req.MaxTokens = c.cfg.Generation.MaxTokens
	return req
}

func (c *openAICompatibleClient) ready() error {
	if c.client == nil {
		return fmt.Errorf("%w: 未配置大模型服务密钥 (%s)", model.ErrProviderUnavailable, c.cfg.APIKeyEnv)
	}
	return nil
}

func (c *openAICompatibleClient) Complete(ctx context.Context, messages []Message, gen *GenerationParams) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	log.Infof("[LLMClient] 调用 chat 接口, model: %s, messages: %d", c.cfg.Model, len(messages))
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, gen))
	if err != nil {
		log.Errorf("[LLMClient] 调用 chat 接口失败: %v", err)
		return "", fmt.Errorf("%w: 调用 chat 接口失败: %w", model.ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat 接口没有返回任何结果", model.ErrProviderUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openAICompatibleClient) StreamChatMessages(ctx context.Context, messages []Message, gen *GenerationParams, writer MessageWriter) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	req := c.buildRequest(messages, gen)
	req.Stream = true

	log.Infof("[LLMClient] 调用流式 chat 接口, model: %s, messages: %d", c.cfg.Model, len(messages))
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		log.Errorf("[LLMClient] 调用流式 chat 接口失败: %v", err)
		return "", fmt.Errorf("%w: 调用 chat 接口失败: %w", model.ErrProviderUnavailable, err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), fmt.Errorf("%w: 读取流式响应失败: %w", model.ErrProviderUnavailable, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		full.WriteString(content)
		if err := writer.WriteMessage(websocket.TextMessage, []byte(content)); err != nil {
			return full.String(), fmt.Errorf("failed to write message to websocket: %w", err)
		}
	}
	return full.String(), nil
}

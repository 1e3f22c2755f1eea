// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"doc-qa-go/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	// 每个会话最多保留的消息条数
	maxHistoryMessages = 20
	historyTTL         = 7 * 24 * time.Hour
)

// ConversationRepository 定义了对话历史记录的操作接口。
type ConversationRepository interface {
	GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	AppendConversationHistory(ctx context.Context, sessionID string, messages ...model.ChatMessage) error
}

func trimHistory(messages []model.ChatMessage) []model.ChatMessage {
	if len(messages) > maxHistoryMessages {
		return messages[len(messages)-maxHistoryMessages:]
	}
	return messages
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个基于 Redis 的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func conversationKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s", sessionID)
}

// GetConversationHistory 从 Redis 获取对话历史记录。
func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, conversationKey(sessionID)).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil // No history yet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// AppendConversationHistory 追加消息并只保留最近 20 条。
func (r *redisConversationRepository) AppendConversationHistory(ctx context.Context, sessionID string, messages ...model.ChatMessage) error {
	history, err := r.GetConversationHistory(ctx, sessionID)
	if err != nil {
		return err
	}
	history = trimHistory(append(history, messages...))
	jsonData, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, conversationKey(sessionID), jsonData, historyTTL).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}

type memoryConversationRepository struct {
	mu      sync.RWMutex
	history map[string][]model.ChatMessage
}

// NewMemoryConversationRepository 创建一个进程内的 ConversationRepository，未启用 Redis 时使用。
func NewMemoryConversationRepository() ConversationRepository {
	return &memoryConversationRepository{history: make(map[string][]model.ChatMessage)}
}

func (r *memoryConversationRepository) GetConversationHistory(_ context.Context, sessionID string) ([]model.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ChatMessage, len(r.history[sessionID]))
	copy(out, r.history[sessionID])
	return out, nil
}

func (r *memoryConversationRepository) AppendConversationHistory(_ context.Context, sessionID string, messages ...model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[sessionID] = trimHistory(append(r.history[sessionID], messages...))
	return nil
}

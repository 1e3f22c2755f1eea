package service

import (
	"context"

	"doc-qa-go/internal/model"
	"doc-qa-go/internal/repository"
)

// ConversationService 定义了对话业务逻辑的接口。
type ConversationService interface {
	GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// GetConversationHistory 获取会话最近的消息历史。
func (s *conversationService) GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.repo.GetConversationHistory(ctx, sessionID)
}

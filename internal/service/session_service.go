package service

import (
	"fmt"

	"doc-qa-go/internal/session"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/token"
)

// SessionService 负责创建会话并签发、解析会话令牌。
type SessionService interface {
	Create() (st *session.State, tokenString string, err error)
	Resolve(tokenString string) (*session.State, error)
}

type sessionService struct {
	store      *session.Store
	jwtManager *token.JWTManager
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(store *session.Store, jwtManager *token.JWTManager) SessionService {
	return &sessionService{store: store, jwtManager: jwtManager}
}

func (s *sessionService) Create() (*session.State, string, error) {
	st := s.store.Create()
	tokenString, err := s.jwtManager.GenerateToken(st.ID)
	if err != nil {
		return nil, "", fmt.Errorf("生成会话令牌失败: %w", err)
	}
	log.Infof("[SessionService] 新建会话: %s", st.ID)
	return st, tokenString, nil
}

// Resolve 校验令牌并返回对应的会话。令牌无效时返回 token 包的错误，会话不存在时返回 ErrSessionNotFound。
func (s *sessionService) Resolve(tokenString string) (*session.State, error) {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return s.store.Get(claims.SessionID)
}

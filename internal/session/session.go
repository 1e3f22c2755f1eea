// Package session 保存每个用户会话的状态：会话 id 与延迟构建的向量索引。
package session

import (
	"context"
	"sync"
	"time"

	"doc-qa-go/internal/index"
	"doc-qa-go/internal/model"

	"github.com/google/uuid"
)

// BuildFunc 为会话构建一个新的向量索引。
type BuildFunc func(ctx context.Context, sessionID string) (index.Index, *model.BuildSummary, error)

// State 是一个会话的全部状态。索引在第一次需要时构建，之后在会话内复用。
type State struct {
	ID        string
	CreatedAt time.Time

	buildMu sync.Mutex // 构建期间一直持有，保证同一会话最多构建一次

	mu      sync.RWMutex
	index   index.Index
	summary *model.BuildSummary
}

// NewState 创建一个尚未构建索引的会话。
func NewState(id string) *State {
	return &State{ID: id, CreatedAt: time.Now()}
}

// Index 返回已构建的索引与构建摘要；尚未构建时返回 nil。
func (s *State) Index() (index.Index, *model.BuildSummary) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index, s.summary
}

// Ready 表示索引是否已构建。
func (s *State) Ready() bool {
	idx, _ := s.Index()
	return idx != nil
}

// EnsureBuilt 在索引不存在时调用 build 构建并保存。
// built 表示本次调用是否执行了构建。build 失败时不保存任何内容，后续调用会重新尝试。
func (s *State) EnsureBuilt(ctx context.Context, build BuildFunc) (idx index.Index, summary *model.BuildSummary, built bool, err error) {
	if idx, summary := s.Index(); idx != nil {
		return idx, summary, false, nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	// 等锁期间其他调用可能已经构建完成
	if idx, summary := s.Index(); idx != nil {
		return idx, summary, false, nil
	}

	idx, summary, err = build(ctx, s.ID)
	if err != nil {
		return nil, nil, false, err
	}

	s.mu.Lock()
	s.index = idx
	s.summary = summary
	s.mu.Unlock()
	return idx, summary, true, nil
}

// Store 是进程内的会话表。会话没有销毁操作，随进程结束。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewStore 创建一个空的会话表。
func NewStore() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// Create 新建一个会话并返回其状态。
func (s *Store) Create() *State {
	st := NewState(uuid.NewString())
	s.mu.Lock()
	s.sessions[st.ID] = st
	s.mu.Unlock()
	return st
}

// Get 按 id 查找会话，不存在时返回 ErrSessionNotFound。
func (s *Store) Get(id string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return st, nil
}

// Len 返回会话数量。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"strings"
	"time"

	"doc-qa-go/internal/index"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/repository"
	"doc-qa-go/internal/session"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/events"
	"doc-qa-go/pkg/kafka"
	"doc-qa-go/pkg/llm"
	"doc-qa-go/pkg/log"
)

// IndexBuilder 为会话构建向量索引，由 pipeline.Processor 实现。
type IndexBuilder interface {
	Build(ctx context.Context, sessionID string) (index.Index, *model.BuildSummary, error)
}

// QAService 是会话级的问答编排：按需构建索引，检索，生成答案。
type QAService interface {
	// EnsureIndexBuilt 在会话尚无索引时构建索引。built 表示本次调用是否执行了构建。
	EnsureIndexBuilt(ctx context.Context, st *session.State) (summary *model.BuildSummary, built bool, err error)
	// Answer 回答问题；会话尚无索引时先隐式构建。
	Answer(ctx context.Context, st *session.State, question string) (*model.Answer, error)
	// StreamAnswer 与 Answer 相同，但把模型输出的增量写入 writer。
	StreamAnswer(ctx context.Context, st *session.State, question string, writer llm.MessageWriter) (*model.Answer, error)
}

type qaService struct {
	builder          IndexBuilder
	embeddingClient  embedding.Client
	llmClient        llm.Client
	prompt           PromptTemplate
	topK             int
	conversationRepo repository.ConversationRepository
	publisher        kafka.Publisher
}

// NewQAService 创建一个新的 QAService 实例。
func NewQAService(
	builder IndexBuilder,
	embeddingClient embedding.Client,
	llmClient llm.Client,
	prompt PromptTemplate,
	topK int,
	conversationRepo repository.ConversationRepository,
	publisher kafka.Publisher,
) QAService {
	if conversationRepo == nil {
		conversationRepo = repository.NewMemoryConversationRepository()
	}
	if publisher == nil {
		publisher = kafka.NewNopPublisher()
	}
	return &qaService{
		builder:          builder,
		embeddingClient:  embeddingClient,
		llmClient:        llmClient,
		prompt:           prompt,
		topK:             topK,
		conversationRepo: conversationRepo,
		publisher:        publisher,
	}
}

func (s *qaService) EnsureIndexBuilt(ctx context.Context, st *session.State) (*model.BuildSummary, bool, error) {
	_, summary, built, err := st.EnsureBuilt(ctx, s.builder.Build)
	if err != nil {
		log.Errorf("[QAService] 会话 %s 构建索引失败: %v", st.ID, err)
		return nil, false, err
	}
	if built {
		log.Infof("[QAService] 会话 %s 索引已就绪, 分块: %d", st.ID, summary.Chunks)
		ev := events.NewIndexBuilt(st.ID, summary.DocumentsUsed, summary.Chunks, summary.Model, summary.Duration)
		s.publish(st.ID, ev)
	}
	return summary, built, nil
}

func (s *qaService) Answer(ctx context.Context, st *session.State, question string) (*model.Answer, error) {
	return s.answer(ctx, st, question, func(msgs []llm.Message) (string, error) {
		return s.llmClient.Complete(ctx, msgs, nil)
	})
}

func (s *qaService) StreamAnswer(ctx context.Context, st *session.State, question string, writer llm.MessageWriter) (*model.Answer, error) {
	return s.answer(ctx, st, question, func(msgs []llm.Message) (string, error) {
		return s.llmClient.StreamChatMessages(ctx, msgs, nil, writer)
	})
}

func (s *qaService) answer(ctx context.Context, st *session.State, question string, generate func([]llm.Message) (string, error)) (*model.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, model.ErrEmptyQuestion
	}

	// 1. 隐式构建索引
	if _, _, err := s.EnsureIndexBuilt(ctx, st); err != nil {
		return nil, err
	}
	idx, _ := st.Index()

	// 2. 计时覆盖检索与生成两步
	start := time.Now()
	hits, err := retrieve(ctx, s.embeddingClient, idx, question, s.topK)
	if err != nil {
		return nil, err
	}

	// 3. 构建提示词并调用大模型
	prompt := s.prompt.Build(question, hits)
	text, err := generate([]llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		log.Errorf("[QAService] 生成答案失败: %v", err)
		return nil, err
	}
	elapsed := time.Since(start)
	log.Infof("[QAService] 会话 %s 回答完成, 上下文分块: %d, 耗时: %s", st.ID, len(hits), elapsed)

	ans := &model.Answer{Question: question, Text: text, Context: hits, Elapsed: elapsed}
	s.record(st.ID, ans)
	return ans, nil
}

// record 保存对话并发布事件。两者都只记录错误，不影响返回给用户的答案。
func (s *qaService) record(sessionID string, ans *model.Answer) {
	// 使用后台上下文，即使请求被取消也保存已生成的答案
	ctx := context.Background()
	now := time.Now()
	err := s.conversationRepo.AppendConversationHistory(ctx, sessionID,
		model.ChatMessage{Role: "user", Content: ans.Question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: ans.Text, Timestamp: now},
	)
	if err != nil {
		log.Errorf("[QAService] 保存对话历史失败: %v", err)
	}
	s.publish(sessionID, events.NewQuestionAnswered(sessionID, ans.Question, len(ans.Context), ans.Elapsed))
}

// publishTimeout 限制事件发布在请求路径上的最长耗时。
const publishTimeout = 2 * time.Second

func (s *qaService) publish(sessionID string, event interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, sessionID, event); err != nil {
		log.Warnf("[QAService] 发布 %T 事件失败: %v", event, err)
	}
}

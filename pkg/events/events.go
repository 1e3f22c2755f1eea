// Package events 定义发布到 Kafka 的领域事件。
package events

import "time"

const (
	TypeIndexBuilt       = "index_built"
	TypeQuestionAnswered = "question_answered"
)

// IndexBuilt 在会话的向量索引构建完成后发布一次。
type IndexBuilt struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	Documents  int       `json:"documents"`
	Chunks     int       `json:"chunks"`
	Model      string    `json:"model"`
	DurationMs int64     `json:"duration_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// QuestionAnswered 在每次成功回答后发布。
type QuestionAnswered struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	Question   string    `json:"question"`
	Chunks     int       `json:"chunks"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewIndexBuilt 填充事件类型与时间戳。
func NewIndexBuilt(sessionID string, documents, chunks int, model string, d time.Duration) IndexBuilt {
	return IndexBuilt{
		Type:       TypeIndexBuilt,
		SessionID:  sessionID,
		Documents:  documents,
		Chunks:     chunks,
		Model:      model,
		DurationMs: d.Milliseconds(),
		OccurredAt: time.Now(),
	}
}

// NewQuestionAnswered 填充事件类型与时间戳。
func NewQuestionAnswered(sessionID, question string, chunks int, elapsed time.Duration) QuestionAnswered {
	return QuestionAnswered{
		Type:       TypeQuestionAnswered,
		SessionID:  sessionID,
		Question:   question,
		Chunks:     chunks,
		ElapsedMs:  elapsed.Milliseconds(),
		OccurredAt: time.Now(),
	}
}

package service

import (
	"strings"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
)

// PromptTemplate 把检索到的分块和问题组装成发给大模型的提示词：
// 先是规则，然后是用 RefStart/RefEnd 包裹的上下文，最后是问题。
type PromptTemplate struct {
	Rules          string
	RefStart       string
	RefEnd         string
	QuestionPrefix string
}

// NewPromptTemplate 从配置创建模板，未配置的部分使用默认值。
func NewPromptTemplate(cfg config.LLMPromptConfig) PromptTemplate {
	p := PromptTemplate{
		Rules:          cfg.Rules,
		RefStart:       cfg.RefStart,
		RefEnd:         cfg.RefEnd,
		QuestionPrefix: cfg.QuestionPrefix,
	}
	if p.Rules == "" {
		p.Rules = config.DefaultRules
	}
	if p.RefStart == "" {
		p.RefStart = "<context>"
	}
	if p.RefEnd == "" {
		p.RefEnd = p.RefStart
	}
	if p.QuestionPrefix == "" {
		p.QuestionPrefix = "Questions:"
	}
	return p
}

// Build 按检索顺序拼接分块，问题原样放在上下文之后。
func (p PromptTemplate) Build(question string, hits []model.SearchHit) string {
	var sb strings.Builder
	sb.WriteString(p.Rules)
	sb.WriteString("\n")
	sb.WriteString(p.RefStart)
	sb.WriteString("\n")
	for i, h := range hits {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(h.Chunk.Text)
	}
	sb.WriteString("\n")
	sb.WriteString(p.RefEnd)
	sb.WriteString("\n")
	sb.WriteString(p.QuestionPrefix)
	sb.WriteString(question)
	return sb.String()
}

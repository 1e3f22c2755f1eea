// Package pipeline 定义了索引构建的核心流程：读取文档、切块、向量化、写入索引。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"doc-qa-go/internal/index"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/repository"
	"doc-qa-go/internal/source"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/log"
)

// Processor 封装了索引构建的所有依赖和逻辑。
type Processor struct {
	loader          source.Loader
	splitter        *Splitter
	embeddingClient embedding.Client
	newIndex        index.Factory
	maxDocuments    int
	chunkRepo       repository.ChunkRepository // 可为 nil
}

// NewProcessor 创建一个新的 Processor 实例。chunkRepo 为 nil 时不保存分块记录。
func NewProcessor(
	loader source.Loader,
	splitter *Splitter,
	embeddingClient embedding.Client,
	newIndex index.Factory,
	maxDocuments int,
	chunkRepo repository.ChunkRepository,
) *Processor {
	return &Processor{
		loader:          loader,
		splitter:        splitter,
		embeddingClient: embeddingClient,
		newIndex:        newIndex,
		maxDocuments:    maxDocuments,
		chunkRepo:       chunkRepo,
	}
}

// Build 为会话构建一个新的向量索引。任何一步失败都不会返回部分构建的索引。
func (p *Processor) Build(ctx context.Context, sessionID string) (index.Index, *model.BuildSummary, error) {
	start := time.Now()
	log.Infof("[Processor] 开始构建索引, SessionID: %s", sessionID)

	// 1. 读取文档
	docs, err := p.loader.Load(ctx)
	if err != nil {
		log.Errorf("[Processor] 读取文档失败, Error: %v", err)
		return nil, nil, err
	}
	used := source.Limit(docs, p.maxDocuments)
	log.Infof("[Processor] 步骤1: 读取到 %d 个文档, 使用其中 %d 个", len(docs), len(used))

	// 2. 文本切块
	chunks := p.split(used)
	log.Infof("[Processor] 步骤2: 文本分块完成, chunkSize: %d, chunkOverlap: %d, 共 %d 个分块",
		p.splitter.Size(), p.splitter.Overlap(), len(chunks))
	if len(chunks) == 0 {
		log.Warnf("[Processor] 未生成任何文本分块, 构建中止")
		return nil, nil, fmt.Errorf("%w: 文档中没有可提取的文本", model.ErrSourceUnavailable)
	}

	// 3. 向量化
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embeddingClient.CreateEmbeddings(ctx, texts)
	if err != nil {
		log.Errorf("[Processor] 向量化失败, Error: %v", err)
		return nil, nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, nil, fmt.Errorf("%w: 得到 %d 个向量, 期望 %d", model.ErrProviderUnavailable, len(vectors), len(chunks))
	}
	log.Infof("[Processor] 步骤3: 向量化完成, 维度: %d", len(vectors[0]))

	// 4. 写入索引
	modelVersion := p.embeddingClient.Model()
	idx, err := p.newIndex(sessionID, modelVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("创建向量索引失败: %w", err)
	}
	entries := make([]model.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = model.IndexEntry{Chunk: c, Vector: vectors[i], ModelVersion: modelVersion}
	}
	if err := idx.Add(ctx, entries); err != nil {
		log.Errorf("[Processor] 写入向量索引失败, Error: %v", err)
		return nil, nil, fmt.Errorf("写入向量索引失败: %w", err)
	}

	// 5. 索引可用后保存分块记录（可选），失败不影响构建
	p.saveChunkRecords(sessionID, chunks)

	summary := &model.BuildSummary{
		DocumentsLoaded: len(docs),
		DocumentsUsed:   len(used),
		Chunks:          len(chunks),
		Dimension:       len(vectors[0]),
		Model:           modelVersion,
		Duration:        time.Since(start),
		BuiltAt:         time.Now(),
	}
	log.Infof("[Processor] 索引构建成功, SessionID: %s, 分块: %d, 耗时: %s", sessionID, summary.Chunks, summary.Duration)
	return idx, summary, nil
}

func (p *Processor) split(docs []model.Document) []model.Chunk {
	var chunks []model.Chunk
	for _, d := range docs {
		for i, text := range p.splitter.Split(d.Text) {
			chunks = append(chunks, model.Chunk{
				ID:     fmt.Sprintf("%s#%d-%d", d.Source, d.Page, i),
				Source: d.Source,
				Page:   d.Page,
				Index:  i,
				Text:   text,
			})
		}
	}
	return chunks
}

func (p *Processor) saveChunkRecords(sessionID string, chunks []model.Chunk) {
	if p.chunkRepo == nil {
		return
	}
	// 同一会话重试构建时先清理旧记录
	if err := p.chunkRepo.DeleteBySessionID(sessionID); err != nil {
		log.Warnf("[Processor] 清理 chunk_records 旧记录失败 (session_id=%s): %v", sessionID, err)
	}
	records := make([]*model.ChunkRecord, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, &model.ChunkRecord{
			SessionID:    sessionID,
			ChunkID:      c.ID,
			Source:       c.Source,
			Page:         c.Page,
			ChunkIndex:   c.Index,
			TextContent:  c.Text,
			ModelVersion: p.embeddingClient.Model(),
		})
	}
	if err := p.chunkRepo.BatchCreate(records); err != nil {
		log.Warnf("[Processor] 保存分块记录失败: %v", err)
		return
	}
	log.Infof("[Processor] 步骤5: 成功将 %d 个分块存入数据库", len(records))
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"doc-qa-go/internal/index"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	docs []model.Document
	err  error
}

func (l *stubLoader) Load(context.Context) ([]model.Document, error) { return l.docs, l.err }

func (l *stubLoader) Sources(context.Context) ([]string, error) { return nil, l.err }

type stubEmbedder struct {
	calls  int
	inputs []string
	err    error
}

func (e *stubEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	v, err := e.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (e *stubEmbedder) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	e.inputs = append(e.inputs, texts...)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (e *stubEmbedder) Model() string { return "stub-model" }

type stubChunkRepo struct {
	records []*model.ChunkRecord
	deleted []string
	err     error
}

func (r *stubChunkRepo) BatchCreate(records []*model.ChunkRecord) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, records...)
	return nil
}

func (r *stubChunkRepo) FindBySessionID(string) ([]*model.ChunkRecord, error) { return r.records, nil }

func (r *stubChunkRepo) DeleteBySessionID(id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func newTestProcessor(t *testing.T, loader *stubLoader, emb *stubEmbedder, max int, repo *stubChunkRepo) *Processor {
	t.Helper()
	s, err := NewSplitter(10, 2)
	require.NoError(t, err)
	var chunkRepo repository.ChunkRepository
	if repo != nil {
		chunkRepo = repo
	}
	return NewProcessor(loader, s, emb, index.MemoryFactory(), max, chunkRepo)
}

func TestBuild_IndexesAllChunks(t *testing.T) {
	loader := &stubLoader{docs: []model.Document{
		{Source: "a.pdf", Page: 0, Text: strings.Repeat("a", 25)}, // 3 块
		{Source: "a.pdf", Page: 1, Text: "short"},                  // 1 块
		{Source: "b.pdf", Page: 0, Text: ""},                       // 0 块
	}}
	emb := &stubEmbedder{}
	repo := &stubChunkRepo{}
	p := newTestProcessor(t, loader, emb, 0, repo)

	// 分块总数等于各文档按公式计算的分块数之和
	want := 0
	for _, d := range loader.docs {
		want += p.splitter.ExpectedChunksOf(d.Text)
	}
	require.Equal(t, 4, want)

	idx, summary, err := p.Build(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, want, idx.Len())
	assert.Equal(t, "stub-model", idx.Model())
	assert.Equal(t, 3, summary.DocumentsLoaded)
	assert.Equal(t, 3, summary.DocumentsUsed)
	assert.Equal(t, want, summary.Chunks)
	assert.Equal(t, 2, summary.Dimension)
	assert.Equal(t, 1, emb.calls)

	require.Len(t, repo.records, 4)
	assert.Equal(t, []string{"sess"}, repo.deleted)
	assert.Equal(t, "a.pdf#0-1", repo.records[1].ChunkID)
	assert.Equal(t, "short", repo.records[3].TextContent)
}

func TestBuild_AppliesDocumentLimit(t *testing.T) {
	var docs []model.Document
	for i := 0; i < 25; i++ {
		docs = append(docs, model.Document{Source: "a.pdf", Page: i, Text: "page"})
	}
	emb := &stubEmbedder{}
	p := newTestProcessor(t, &stubLoader{docs: docs}, emb, 20, nil)

	idx, summary, err := p.Build(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, 20, idx.Len())
	assert.Equal(t, 25, summary.DocumentsLoaded)
	assert.Equal(t, 20, summary.DocumentsUsed)
}

func TestBuild_SourceErrorSkipsEmbedding(t *testing.T) {
	emb := &stubEmbedder{}
	p := newTestProcessor(t, &stubLoader{err: model.ErrSourceUnavailable}, emb, 20, nil)

	_, _, err := p.Build(context.Background(), "sess")
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
	assert.Equal(t, 0, emb.calls)
}

func TestBuild_NoTextSkipsEmbedding(t *testing.T) {
	emb := &stubEmbedder{}
	p := newTestProcessor(t, &stubLoader{docs: []model.Document{{Source: "a.pdf", Text: ""}}}, emb, 20, nil)

	_, _, err := p.Build(context.Background(), "sess")
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
	assert.Equal(t, 0, emb.calls)
}

func TestBuild_EmbeddingFailure(t *testing.T) {
	emb := &stubEmbedder{err: model.ErrProviderUnavailable}
	repo := &stubChunkRepo{}
	p := newTestProcessor(t, &stubLoader{docs: []model.Document{{Source: "a.pdf", Text: "hello"}}}, emb, 20, repo)

	idx, summary, err := p.Build(context.Background(), "sess")
	assert.ErrorIs(t, err, model.ErrProviderUnavailable)
	assert.Nil(t, idx)
	assert.Nil(t, summary)
	// 构建失败时不留下分块记录
	assert.Empty(t, repo.records)
	assert.Empty(t, repo.deleted)
}

func TestBuild_ChunkRepoFailureIsNotFatal(t *testing.T) {
	repo := &stubChunkRepo{err: errors.New("db down")}
	p := newTestProcessor(t, &stubLoader{docs: []model.Document{{Source: "a.pdf", Text: "hello"}}}, &stubEmbedder{}, 20, repo)

	idx, _, err := p.Build(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}

package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"doc-qa-go/internal/index"
	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Index 把一个会话的分块存放在共享的 Elasticsearch 索引中，以 session_id 区分。
type Index struct {
	client    *elasticsearch.Client
	indexName string
	sessionID string
	model     string

	mu        sync.Mutex
	count     int
	dimension int
}

// Factory 返回创建 Elasticsearch 索引的 index.Factory。
// 每次创建都会先清理该会话此前写入的文档，保证新索引为空。
func Factory(client *elasticsearch.Client, indexName string) index.Factory {
	return func(sessionID, modelVersion string) (index.Index, error) {
		idx := &Index{client: client, indexName: indexName, sessionID: sessionID, model: modelVersion}
		if err := idx.clear(context.Background()); err != nil {
			return nil, err
		}
		return idx, nil
	}
}

func (i *Index) Model() string { return i.model }

func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.count
}

func (i *Index) clear(ctx context.Context) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"session_id": i.sessionID},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return err
	}
	res, err := i.client.DeleteByQuery(
		[]string{i.indexName},
		&buf,
		i.client.DeleteByQuery.WithContext(ctx),
		i.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("清理会话 %s 的 Elasticsearch 文档失败: %w", i.sessionID, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("清理会话文档时 Elasticsearch 返回错误: %s", res.String())
	}
	return nil
}

// Add 逐条写入文档，最后刷新一次索引使其可被检索。
func (i *Index) Add(ctx context.Context, entries []model.IndexEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	dim := i.dimension
	for n, e := range entries {
		if e.ModelVersion != i.model {
			return fmt.Errorf("%w: 条目 %d 的模型为 %q, 索引模型为 %q", model.ErrEmbeddingMismatch, n, e.ModelVersion, i.model)
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: 条目 %d 维度为 %d, 索引维度为 %d", model.ErrEmbeddingMismatch, n, len(e.Vector), dim)
		}
	}
	i.dimension = dim

	for _, e := range entries {
		doc := model.EsDocument{
			VectorID:     fmt.Sprintf("%s_%s", i.sessionID, e.Chunk.ID),
			SessionID:    i.sessionID,
			Seq:          i.count,
			ChunkID:      e.Chunk.ID,
			Source:       e.Chunk.Source,
			Page:         e.Chunk.Page,
			ChunkIndex:   e.Chunk.Index,
			TextContent:  e.Chunk.Text,
			Vector:       e.Vector,
			ModelVersion: e.ModelVersion,
		}
		if err := i.indexDocument(ctx, doc); err != nil {
			return err
		}
		i.count++
	}

	res, err := i.client.Indices.Refresh(
		i.client.Indices.Refresh.WithContext(ctx),
		i.client.Indices.Refresh.WithIndex(i.indexName),
	)
	if err != nil {
		return fmt.Errorf("刷新 Elasticsearch 索引失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("刷新索引时 Elasticsearch 返回错误: %s", res.String())
	}
	return nil
}

// indexDocument 将单个分块索引到 Elasticsearch。
func (i *Index) indexDocument(ctx context.Context, doc model.EsDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.indexName,
		DocumentID: doc.VectorID,
		Body:       bytes.NewReader(docBytes),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index document")
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source model.EsDocument `json:"_source"`
			Score  float64          `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search 在本会话的文档中做 k-NN 检索。
// ES 的 cosine 分数为 (1+cos)/2，这里还原为余弦值，并按分数降序、写入顺序升序重新排序。
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]model.SearchHit, error) {
	i.mu.Lock()
	dim := i.dimension
	i.mu.Unlock()

	if k <= 0 || dim == 0 {
		return []model.SearchHit{}, nil
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: 查询向量维度为 %d, 索引维度为 %d", model.ErrEmbeddingMismatch, len(vector), dim)
	}

	candidates := k * 10
	if candidates < 100 {
		candidates = 100
	}
	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": candidates,
			"filter": map[string]interface{}{
				"bool": map[string]interface{}{
					"filter": []map[string]interface{}{
						{"term": map[string]interface{}{"session_id": i.sessionID}},
						{"term": map[string]interface{}{"model_version": i.model}},
					},
				},
			},
		},
		"_source": map[string]interface{}{"excludes": []string{"vector"}},
		"size":    k,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.indexName),
		i.client.Search.WithBody(&buf),
	)
	if err != nil {
		log.Errorf("[EsIndex] 向 Elasticsearch 发送搜索请求失败: %v", err)
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		log.Errorf("[EsIndex] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), strings.TrimSpace(string(body)))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse searchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	type ranked struct {
		hit model.SearchHit
		seq int
	}
	results := make([]ranked, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		results = append(results, ranked{
			hit: model.SearchHit{
				Chunk: model.Chunk{
					ID:     h.Source.ChunkID,
					Source: h.Source.Source,
					Page:   h.Source.Page,
					Index:  h.Source.ChunkIndex,
					Text:   h.Source.TextContent,
				},
				Score: 2*h.Score - 1,
			},
			seq: h.Source.Seq,
		})
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].hit.Score != results[b].hit.Score {
			return results[a].hit.Score > results[b].hit.Score
		}
		return results[a].seq < results[b].seq
	})
	if len(results) > k {
		results = results[:k]
	}

	hits := make([]model.SearchHit, len(results))
	for n, r := range results {
		hits[n] = r.hit
	}
	return hits, nil
}

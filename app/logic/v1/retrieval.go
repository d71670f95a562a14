package v1

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/dashmart-ai/dashmart/app/store"
	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

// retriever 向量召回。不做 ready/enabled 过滤，候选集由调用方
// 通过 allowedDocIDs 给定。
type retriever struct {
	vectors  store.VectorStore
	chunks   store.KnowledgeChunkStore
	docs     store.KnowledgeDocumentStore
	embedder ai.Embedding
}

func newRetriever(vectors store.VectorStore, chunks store.KnowledgeChunkStore, docs store.KnowledgeDocumentStore, embedder ai.Embedding) *retriever {
	return &retriever{
		vectors:  vectors,
		chunks:   chunks,
		docs:     docs,
		embedder: embedder,
	}
}

// Retrieve 对 query 做一次向量化后检索 topK 个切片，按相似度降序。
// allowedDocIDs 为空直接返回空结果，不触达向量库。
func (r *retriever) Retrieve(ctx context.Context, query string, topK uint64, allowedDocIDs []string) ([]types.RetrievedChunk, string, error) {
	if len(allowedDocIDs) == 0 {
		return nil, "", nil
	}

	resp, err := r.embedder.EmbeddingForQuery(ctx, []string{query})
	if err != nil {
		return nil, "", fmt.Errorf("embedding query: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, resp.Model, nil
	}

	hits, err := r.vectors.Query(ctx, types.GetVectorsOptions{
		AllowedDocumentIDs: allowedDocIDs,
	}, pgvector.NewVector(resp.Data[0]), topK)
	if err != nil && err != sql.ErrNoRows {
		return nil, resp.Model, err
	}
	if len(hits) == 0 {
		return nil, resp.Model, nil
	}

	retrieved, err := r.hydrate(ctx, hits)
	if err != nil {
		return nil, resp.Model, err
	}
	return retrieved, resp.Model, nil
}

// hydrate 用切片表内容补全向量命中结果，并带上文档标题。
// 切片在命中后被删除的属于正常竞态，跳过即可。
func (r *retriever) hydrate(ctx context.Context, hits []types.VectorQueryResult) ([]types.RetrievedChunk, error) {
	chunksByDoc := make(map[string]map[int]types.KnowledgeChunk)
	titles := make(map[string]string)

	result := make([]types.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		byIndex, ok := chunksByDoc[hit.DocumentID]
		if !ok {
			list, err := r.chunks.List(ctx, hit.DocumentID)
			if err != nil && err != sql.ErrNoRows {
				return nil, err
			}
			byIndex = make(map[int]types.KnowledgeChunk, len(list))
			for _, item := range list {
				byIndex[item.ChunkIndex] = item
			}
			chunksByDoc[hit.DocumentID] = byIndex

			doc, err := r.docs.GetDocument(ctx, hit.DocumentID)
			if err != nil && err != sql.ErrNoRows {
				return nil, err
			}
			if doc != nil {
				titles[hit.DocumentID] = doc.Title
			}
		}

		chunk, ok := byIndex[hit.ChunkIndex]
		if !ok {
			continue
		}
		result = append(result, types.RetrievedChunk{
			ChunkID:       chunk.ID,
			DocumentID:    hit.DocumentID,
			DocumentTitle: titles[hit.DocumentID],
			ChunkIndex:    hit.ChunkIndex,
			Page:          hit.Page,
			Content:       chunk.Content,
			Score:         hit.Cos,
		})
	}
	return result, nil
}

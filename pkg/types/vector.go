package types

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

// VectorID 向量主键，`{documentID}_{chunkIndex}`，reindex 时整体删除重建。
func VectorID(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s_%d", documentID, chunkIndex)
}

type Vector struct {
	ID             string          `json:"id" db:"id"`
	DocumentID     string          `json:"document_id" db:"document_id"`
	ChunkIndex     int             `json:"chunk_index" db:"chunk_index"`
	Page           int             `json:"page" db:"page"`
	Heading        string          `json:"heading" db:"heading"`
	StartOffset    int             `json:"start_offset" db:"start_offset"`
	EndOffset      int             `json:"end_offset" db:"end_offset"`
	Embedding      pgvector.Vector `json:"embedding" db:"embedding"`
	OriginalLength int             `json:"original_length" db:"original_length"`
	CreatedAt      int64           `json:"created_at" db:"created_at"`
	UpdatedAt      int64           `json:"updated_at" db:"updated_at"`
}

// VectorQueryResult 相似度查询结果，cos 越大越相关。
type VectorQueryResult struct {
	ID         string  `json:"id" db:"id"`
	DocumentID string  `json:"document_id" db:"document_id"`
	ChunkIndex int     `json:"chunk_index" db:"chunk_index"`
	Page       int     `json:"page" db:"page"`
	Heading    string  `json:"heading" db:"heading"`
	Cos        float32 `json:"cos" db:"cos"`
}

type GetVectorsOptions struct {
	ID                 string
	DocumentID         string
	AllowedDocumentIDs []string
}

func (opts GetVectorsOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if opts.DocumentID != "" {
		*query = query.Where(sq.Eq{"document_id": opts.DocumentID})
	}
	if opts.AllowedDocumentIDs != nil {
		*query = query.Where(sq.Eq{"document_id": opts.AllowedDocumentIDs})
	}
}

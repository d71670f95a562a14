package types

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

type IngestStatus string

const (
	INGEST_STATUS_UPLOADED   IngestStatus = "uploaded"
	INGEST_STATUS_PROCESSING IngestStatus = "processing"
	INGEST_STATUS_READY      IngestStatus = "ready"
	INGEST_STATUS_FAILED     IngestStatus = "failed"
)

func (s IngestStatus) String() string {
	return string(s)
}

type FileType string

const (
	FILE_TYPE_TXT      FileType = "txt"
	FILE_TYPE_MARKDOWN FileType = "md"
	FILE_TYPE_PDF      FileType = "pdf"
	FILE_TYPE_DOCX     FileType = "docx"
	FILE_TYPE_UNKNOWN  FileType = "unknown"
)

func FileTypeFromName(name string) FileType {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return FILE_TYPE_UNKNOWN
	}
	switch strings.ToLower(name[idx+1:]) {
	case "txt", "text":
		return FILE_TYPE_TXT
	case "md", "markdown":
		return FILE_TYPE_MARKDOWN
	case "pdf":
		return FILE_TYPE_PDF
	case "docx":
		return FILE_TYPE_DOCX
	default:
		return FILE_TYPE_UNKNOWN
	}
}

// KnowledgeDocument 支持库文档。只有 status=ready 且 enabled_for_chat=true
// 的文档才会进入检索候选集。
type KnowledgeDocument struct {
	ID             string         `json:"id" db:"id"`
	Title          string         `json:"title" db:"title"`
	FileKey        string         `json:"file_key" db:"file_key"`
	FileName       string         `json:"file_name" db:"file_name"`
	FileType       FileType       `json:"file_type" db:"file_type"`
	FileSize       int64          `json:"file_size" db:"file_size"`
	Status         IngestStatus   `json:"status" db:"status"`
	FailReason     string         `json:"fail_reason" db:"fail_reason"`
	EnabledForChat bool           `json:"enabled_for_chat" db:"enabled_for_chat"`
	Tags           pq.StringArray `json:"tags" db:"tags"`
	ChunkCount     int            `json:"chunk_count" db:"chunk_count"`
	PageCount      int            `json:"page_count" db:"page_count"`
	EmbeddingModel string         `json:"embedding_model" db:"embedding_model"`
	CreatedAt      int64          `json:"created_at" db:"created_at"`
	UpdatedAt      int64          `json:"updated_at" db:"updated_at"`
}

// Retrievable reports whether the document may enter the retrieval candidate set.
func (d *KnowledgeDocument) Retrievable() bool {
	return d.Status == INGEST_STATUS_READY && d.EnabledForChat
}

type ListKnowledgeDocumentOptions struct {
	Status   IngestStatus
	Enabled  *bool
	Keywords string
}

func (opts ListKnowledgeDocumentOptions) Apply(query *sq.SelectBuilder) {
	if opts.Status != "" {
		*query = query.Where(sq.Eq{"status": opts.Status})
	}
	if opts.Enabled != nil {
		*query = query.Where(sq.Eq{"enabled_for_chat": *opts.Enabled})
	}
	if opts.Keywords != "" {
		*query = query.Where(sq.ILike{"title": "%" + opts.Keywords + "%"})
	}
}

type UpdateKnowledgeDocumentArgs struct {
	Title          *string
	Tags           []string
	EnabledForChat *bool
}

// KnowledgeChunk 文档切片，仅由摄取流程创建，chunk_index 在单个文档内
// 连续且从 0 开始。
type KnowledgeChunk struct {
	ID          string `json:"id" db:"id"`
	DocumentID  string `json:"document_id" db:"document_id"`
	ChunkIndex  int    `json:"chunk_index" db:"chunk_index"`
	Content     string `json:"content" db:"content"`
	StartOffset int    `json:"start_offset" db:"start_offset"`
	EndOffset   int    `json:"end_offset" db:"end_offset"`
	Page        int    `json:"page" db:"page"`
	Heading     string `json:"heading" db:"heading"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
}

package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// RagTraceChunk 一条被检索命中的切片快照，preview 仅保留片段开头。
type RagTraceChunk struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
	Preview    string  `json:"preview"`
}

type RagTraceChunks []RagTraceChunk

func (c RagTraceChunks) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *RagTraceChunks) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = RagTraceChunks{}
		return nil
	default:
		return fmt.Errorf("unsupported jsonb scan source %T", value)
	}
}

// RagTrace 每次 RAG 生成写入一条，不可变，仅用于调试与审计。
// rag_enabled=true 的消息必须引用一条至少包含一个切片的 trace。
type RagTrace struct {
	ID             string         `json:"id" db:"id"`
	ConversationID string         `json:"conversation_id" db:"conversation_id"`
	MessageID      string         `json:"message_id" db:"message_id"`
	Chunks         RagTraceChunks `json:"chunks" db:"chunks"`
	TopK           int            `json:"top_k" db:"top_k"`
	ChunkSize      int            `json:"chunk_size" db:"chunk_size"`
	Overlap        int            `json:"overlap" db:"overlap"`
	EmbeddingModel string         `json:"embedding_model" db:"embedding_model"`
	ChatModel      string         `json:"chat_model" db:"chat_model"`
	CreatedAt      int64          `json:"created_at" db:"created_at"`
}

type ListRagTraceOptions struct {
	ID             string
	ConversationID string
	MessageID      string
	DocumentID     string
}

func (opts ListRagTraceOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if opts.ConversationID != "" {
		*query = query.Where(sq.Eq{"conversation_id": opts.ConversationID})
	}
	if opts.MessageID != "" {
		*query = query.Where(sq.Eq{"message_id": opts.MessageID})
	}
	if opts.DocumentID != "" {
		*query = query.Where(sq.Expr("chunks @> ?", fmt.Sprintf(`[{"document_id":%q}]`, opts.DocumentID)))
	}
}

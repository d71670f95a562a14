package types

import (
	sq "github.com/Masterminds/squirrel"
)

type MessageRole string

const (
	MESSAGE_ROLE_CUSTOMER  MessageRole = "customer"
	MESSAGE_ROLE_ASSISTANT MessageRole = "assistant"
	MESSAGE_ROLE_HUMAN     MessageRole = "human"
	MESSAGE_ROLE_SYSTEM    MessageRole = "system"
)

func (r MessageRole) String() string {
	return string(r)
}

// ConversationMessage append-only 消息记录，创建顺序即为会话的规范文本。
type ConversationMessage struct {
	ID             string      `json:"id" db:"id"`
	ConversationID string      `json:"conversation_id" db:"conversation_id"`
	Role           MessageRole `json:"role" db:"role"`
	Content        string      `json:"content" db:"content"`
	InternalNote   bool        `json:"internal_note" db:"internal_note"`
	TraceID        string      `json:"trace_id" db:"trace_id"`
	Model          string      `json:"model" db:"model"`
	LatencyMs      int64       `json:"latency_ms" db:"latency_ms"`
	RagEnabled     bool        `json:"rag_enabled" db:"rag_enabled"`
	RagTraceID     string      `json:"rag_trace_id" db:"rag_trace_id"`
	UsedFallback   bool        `json:"used_fallback" db:"used_fallback"`
	CreatedAt      int64       `json:"created_at" db:"created_at"`
}

type ListConversationMessageOptions struct {
	ConversationID string
	Role           MessageRole
	ExcludeNotes   bool
}

func (opts ListConversationMessageOptions) Apply(query *sq.SelectBuilder) {
	if opts.ConversationID != "" {
		*query = query.Where(sq.Eq{"conversation_id": opts.ConversationID})
	}
	if opts.Role != "" {
		*query = query.Where(sq.Eq{"role": opts.Role})
	}
	if opts.ExcludeNotes {
		*query = query.Where(sq.Eq{"internal_note": false})
	}
}

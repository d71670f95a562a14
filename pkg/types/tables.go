package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "dashmart_"

const (
	TABLE_KNOWLEDGE_DOCUMENT   = TableName("knowledge_document")
	TABLE_KNOWLEDGE_CHUNK      = TableName("knowledge_chunk")
	TABLE_VECTORS              = TableName("vectors")
	TABLE_CONVERSATION         = TableName("conversation")
	TABLE_CONVERSATION_MESSAGE = TableName("conversation_message")
	TABLE_RAG_TRACE            = TableName("rag_trace")
	TABLE_ADMIN_CHAT_AUDIT     = TableName("admin_chat_audit")
	TABLE_ADMIN_USER           = TableName("admin_user")
	TABLE_PRODUCT              = TableName("product")
	TABLE_CATEGORY             = TableName("category")
	TABLE_BANNER               = TableName("banner")
	TABLE_ORDER                = TableName("orders")
)

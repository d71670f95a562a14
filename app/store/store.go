package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/dashmart-ai/dashmart/pkg/sqlstore"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

// KnowledgeDocumentStore 支持库文档的存储接口
type KnowledgeDocumentStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.KnowledgeDocument) error
	GetDocument(ctx context.Context, id string) (*types.KnowledgeDocument, error)
	Update(ctx context.Context, id string, args types.UpdateKnowledgeDocumentArgs) error
	Delete(ctx context.Context, id string) error
	// SetStatus 推进摄取状态机，failReason 仅在 failed 时有意义
	SetStatus(ctx context.Context, id string, status types.IngestStatus, failReason string) error
	// FinishIngest 摄取成功后一次性写入派生字段
	FinishIngest(ctx context.Context, id string, chunkCount, pageCount int, embeddingModel string) error
	ListDocuments(ctx context.Context, opts types.ListKnowledgeDocumentOptions, page, pageSize uint64) ([]types.KnowledgeDocument, error)
	Total(ctx context.Context, opts types.ListKnowledgeDocumentOptions) (int64, error)
	// ListRetrievableIDs 返回当前允许进入检索候选集的文档ID
	ListRetrievableIDs(ctx context.Context) ([]string, error)
}

type KnowledgeChunkStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.KnowledgeChunk) error
	BatchCreate(ctx context.Context, data []*types.KnowledgeChunk) error
	Get(ctx context.Context, documentID, id string) (*types.KnowledgeChunk, error)
	List(ctx context.Context, documentID string) ([]types.KnowledgeChunk, error)
	BatchDelete(ctx context.Context, documentID string) error
}

type VectorStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Vector) error
	BatchCreate(ctx context.Context, datas []types.Vector) error
	BatchDelete(ctx context.Context, documentID string) error
	ListVectors(ctx context.Context, opts types.GetVectorsOptions, page, pageSize uint64) ([]types.Vector, error)
	Query(ctx context.Context, opts types.GetVectorsOptions, vectors pgvector.Vector, limit uint64) ([]types.VectorQueryResult, error)
}

type ConversationStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Conversation) error
	GetConversation(ctx context.Context, id string) (*types.Conversation, error)
	// GetBySession 返回指定 session 下最近创建的会话
	GetBySession(ctx context.Context, userID, sessionID string) (*types.Conversation, error)
	Update(ctx context.Context, id string, args types.UpdateConversationArgs) error
	ListConversations(ctx context.Context, opts types.ListConversationOptions, page, pageSize uint64) ([]types.Conversation, error)
	Total(ctx context.Context, opts types.ListConversationOptions) (int64, error)
}

type ConversationMessageStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ConversationMessage) error
	GetMessage(ctx context.Context, id string) (*types.ConversationMessage, error)
	ListMessages(ctx context.Context, opts types.ListConversationMessageOptions, page, pageSize uint64) ([]types.ConversationMessage, error)
	// ListLatest 按创建时间倒序取最近 limit 条，调用方自行反转
	ListLatest(ctx context.Context, conversationID string, limit uint64) ([]types.ConversationMessage, error)
	Total(ctx context.Context, opts types.ListConversationMessageOptions) (int64, error)
}

type RagTraceStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.RagTrace) error
	GetTrace(ctx context.Context, id string) (*types.RagTrace, error)
	ListTraces(ctx context.Context, opts types.ListRagTraceOptions, page, pageSize uint64) ([]types.RagTrace, error)
}

type AdminChatAuditStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.AdminChatAudit) error
	ListAudits(ctx context.Context, opts types.ListAdminChatAuditOptions, page, pageSize uint64) ([]types.AdminChatAudit, error)
	Total(ctx context.Context, opts types.ListAdminChatAuditOptions) (int64, error)
}

type AdminUserStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.AdminUser) error
	GetAdminUser(ctx context.Context, id string) (*types.AdminUser, error)
	GetByToken(ctx context.Context, token string) (*types.AdminUser, error)
	ListAdminUsers(ctx context.Context, page, pageSize uint64) ([]types.AdminUser, error)
}

type ProductStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Product) error
	GetProduct(ctx context.Context, id string) (*types.Product, error)
	Update(ctx context.Context, data types.Product) error
	Delete(ctx context.Context, id string) error
	ListProducts(ctx context.Context, opts types.ListProductOptions, page, pageSize uint64) ([]types.Product, error)
	// Search 全文检索，ILIKE 作为兜底召回
	Search(ctx context.Context, keywords string, limit uint64) ([]types.Product, error)
	Total(ctx context.Context, opts types.ListProductOptions) (int64, error)
}

type CategoryStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Category) error
	GetCategory(ctx context.Context, id string) (*types.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]types.Category, error)
	Delete(ctx context.Context, id string) error
}

type BannerStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Banner) error
	// ListActive 返回在 now 时刻生效的 banner
	ListActive(ctx context.Context, now int64) ([]types.Banner, error)
	Delete(ctx context.Context, id string) error
}

type OrderStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Order) error
	GetOrder(ctx context.Context, id string) (*types.Order, error)
	// GetLatestByUser 客户问“我的订单到哪了”时的默认查询对象
	GetLatestByUser(ctx context.Context, userID string) (*types.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListOrders(ctx context.Context, userID string, page, pageSize uint64) ([]types.Order, error)
}

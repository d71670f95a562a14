package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dashmart-ai/dashmart/pkg/register"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.RagTraceStore = NewRagTraceStore(provider)
	})
}

type RagTraceStore struct {
	CommonFields
}

// NewRagTraceStore 创建一个新的 RagTraceStore 实例
func NewRagTraceStore(provider SqlProviderAchieve) *RagTraceStore {
	repo := &RagTraceStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_RAG_TRACE)
	repo.SetAllColumns("id", "conversation_id", "message_id", "chunks", "top_k", "chunk_size", "overlap", "embedding_model", "chat_model", "created_at")
	return repo
}

// Create 写入一条检索 trace，trace 不可修改
func (s *RagTraceStore) Create(ctx context.Context, data types.RagTrace) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ConversationID, data.MessageID, data.Chunks, data.TopK, data.ChunkSize, data.Overlap, data.EmbeddingModel, data.ChatModel, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// GetTrace 根据ID获取 trace
func (s *RagTraceStore) GetTrace(ctx context.Context, id string) (*types.RagTrace, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.RagTrace
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListTraces 分页获取 trace 列表
func (s *RagTraceStore) ListTraces(ctx context.Context, opts types.ListRagTraceOptions, page, pageSize uint64) ([]types.RagTrace, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC")
	if pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.RagTrace
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

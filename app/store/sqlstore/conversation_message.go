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
		provider.stores.ConversationMessageStore = NewConversationMessageStore(provider)
	})
}

type ConversationMessageStore struct {
	CommonFields
}

// NewConversationMessageStore 创建一个新的 ConversationMessageStore 实例
func NewConversationMessageStore(provider SqlProviderAchieve) *ConversationMessageStore {
	repo := &ConversationMessageStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CONVERSATION_MESSAGE)
	repo.SetAllColumns("id", "conversation_id", "role", "content", "internal_note", "trace_id",
		"model", "latency_ms", "rag_enabled", "rag_trace_id", "used_fallback", "created_at")
	return repo
}

// Create 追加一条消息，消息不可修改
func (s *ConversationMessageStore) Create(ctx context.Context, data types.ConversationMessage) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ConversationID, data.Role, data.Content, data.InternalNote, data.TraceID,
			data.Model, data.LatencyMs, data.RagEnabled, data.RagTraceID, data.UsedFallback, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// GetMessage 根据ID获取消息记录
func (s *ConversationMessageStore) GetMessage(ctx context.Context, id string) (*types.ConversationMessage, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.ConversationMessage
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListMessages 按创建顺序分页获取消息列表
func (s *ConversationMessageStore) ListMessages(ctx context.Context, opts types.ListConversationMessageOptions, page, pageSize uint64) ([]types.ConversationMessage, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at ASC", "id ASC")
	if pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ConversationMessage
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// ListLatest 取最近 limit 条，倒序返回
func (s *ConversationMessageStore) ListLatest(ctx context.Context, conversationID string, limit uint64) ([]types.ConversationMessage, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at DESC", "id DESC").Limit(limit)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ConversationMessage
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ConversationMessageStore) Total(ctx context.Context, opts types.ListConversationMessageOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}

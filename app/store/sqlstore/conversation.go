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
		provider.stores.ConversationStore = NewConversationStore(provider)
	})
}

type ConversationStore struct {
	CommonFields
}

// NewConversationStore 创建一个新的 ConversationStore 实例
func NewConversationStore(provider SqlProviderAchieve) *ConversationStore {
	repo := &ConversationStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CONVERSATION)
	repo.SetAllColumns("id", "user_id", "session_id", "channel", "status", "mode", "queue",
		"priority", "assigned_admin", "needs_review", "confidence", "sla_due_at", "sla_breached",
		"last_message_at", "created_at", "updated_at")
	return repo
}

// Create 创建新的会话记录
func (s *ConversationStore) Create(ctx context.Context, data types.Conversation) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.UserID, data.SessionID, data.Channel, data.Status, data.Mode, data.Queue,
			data.Priority, data.AssignedAdmin, data.NeedsReview, data.Confidence, data.SlaDueAt, data.SlaBreached,
			data.LastMessageAt, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// GetConversation 根据ID获取会话记录
func (s *ConversationStore) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Conversation
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetBySession 获取 session 下最近创建的会话
func (s *ConversationStore) GetBySession(ctx context.Context, userID, sessionID string) (*types.Conversation, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"user_id": userID, "session_id": sessionID}).
		OrderBy("created_at DESC").Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Conversation
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// Update 更新会话记录，只更新非 nil 字段
func (s *ConversationStore) Update(ctx context.Context, id string, args types.UpdateConversationArgs) error {
	query := sq.Update(s.GetTable()).Set("updated_at", time.Now().Unix()).Where(sq.Eq{"id": id})
	if args.Status != nil {
		query = query.Set("status", *args.Status)
	}
	if args.Mode != nil {
		query = query.Set("mode", *args.Mode)
	}
	if args.Queue != nil {
		query = query.Set("queue", *args.Queue)
	}
	if args.Priority != nil {
		query = query.Set("priority", *args.Priority)
	}
	if args.AssignedAdmin != nil {
		query = query.Set("assigned_admin", *args.AssignedAdmin)
	}
	if args.NeedsReview != nil {
		query = query.Set("needs_review", *args.NeedsReview)
	}
	if args.Confidence != nil {
		query = query.Set("confidence", *args.Confidence)
	}
	if args.SlaBreached != nil {
		query = query.Set("sla_breached", *args.SlaBreached)
	}
	if args.SlaDueAt != nil {
		query = query.Set("sla_due_at", *args.SlaDueAt)
	}
	if args.LastMessageAt != nil {
		query = query.Set("last_message_at", *args.LastMessageAt)
	}

	queryString, sqlArgs, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, sqlArgs...)
	return err
}

// ListConversations 分页获取会话记录列表
func (s *ConversationStore) ListConversations(ctx context.Context, opts types.ListConversationOptions, page, pageSize uint64) ([]types.Conversation, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("last_message_at DESC")
	if pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Conversation
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ConversationStore) Total(ctx context.Context, opts types.ListConversationOptions) (int64, error) {
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

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
		provider.stores.AdminChatAuditStore = NewAdminChatAuditStore(provider)
	})
}

type AdminChatAuditStore struct {
	CommonFields
}

// NewAdminChatAuditStore 创建一个新的 AdminChatAuditStore 实例
func NewAdminChatAuditStore(provider SqlProviderAchieve) *AdminChatAuditStore {
	repo := &AdminChatAuditStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_ADMIN_CHAT_AUDIT)
	repo.SetAllColumns("id", "admin_id", "conversation_id", "action", "before", "after", "created_at")
	return repo
}

// Create 追加一条审计记录
func (s *AdminChatAuditStore) Create(ctx context.Context, data types.AdminChatAudit) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.AdminID, data.ConversationID, data.Action, data.Before, data.After, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// ListAudits 按时间倒序分页获取审计记录
func (s *AdminChatAuditStore) ListAudits(ctx context.Context, opts types.ListAdminChatAuditOptions, page, pageSize uint64) ([]types.AdminChatAudit, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	if pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.AdminChatAudit
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AdminChatAuditStore) Total(ctx context.Context, opts types.ListAdminChatAuditOptions) (int64, error) {
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

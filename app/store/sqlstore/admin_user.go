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
		provider.stores.AdminUserStore = NewAdminUserStore(provider)
	})
}

type AdminUserStore struct {
	CommonFields
}

// NewAdminUserStore 创建一个新的 AdminUserStore 实例
func NewAdminUserStore(provider SqlProviderAchieve) *AdminUserStore {
	repo := &AdminUserStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_ADMIN_USER)
	repo.SetAllColumns("id", "name", "token", "role", "created_at")
	return repo
}

// Create 创建后台账号
func (s *AdminUserStore) Create(ctx context.Context, data types.AdminUser) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Name, data.Token, data.Role, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// GetAdminUser 根据ID获取后台账号
func (s *AdminUserStore) GetAdminUser(ctx context.Context, id string) (*types.AdminUser, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.AdminUser
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByToken 鉴权中间件使用的查询
func (s *AdminUserStore) GetByToken(ctx context.Context, token string) (*types.AdminUser, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"token": token})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.AdminUser
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListAdminUsers 分页获取后台账号列表
func (s *AdminUserStore) ListAdminUsers(ctx context.Context, page, pageSize uint64) ([]types.AdminUser, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at ASC")
	if pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.AdminUser
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

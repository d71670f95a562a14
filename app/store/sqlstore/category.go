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
		provider.stores.CategoryStore = NewCategoryStore(provider)
	})
}

type CategoryStore struct {
	CommonFields
}

func NewCategoryStore(provider SqlProviderAchieve) *CategoryStore {
	repo := &CategoryStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CATEGORY)
	repo.SetAllColumns("id", "name", "rank", "active", "created_at")
	return repo
}

func (s *CategoryStore) Create(ctx context.Context, data types.Category) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Name, data.Rank, data.Active, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *CategoryStore) GetCategory(ctx context.Context, id string) (*types.Category, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Category
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListCategories 按 rank 升序返回分类
func (s *CategoryStore) ListCategories(ctx context.Context, activeOnly bool) ([]types.Category, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("rank ASC")
	if activeOnly {
		query = query.Where(sq.Eq{"active": true})
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Category
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

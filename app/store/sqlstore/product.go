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
		provider.stores.ProductStore = NewProductStore(provider)
	})
}

type ProductStore struct {
	CommonFields
}

// NewProductStore 创建一个新的 ProductStore 实例
func NewProductStore(provider SqlProviderAchieve) *ProductStore {
	repo := &ProductStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PRODUCT)
	repo.SetAllColumns("id", "name", "description", "category_id", "price_cents", "image_url", "in_stock", "active", "created_at", "updated_at")
	return repo
}

// Create 创建商品记录
func (s *ProductStore) Create(ctx context.Context, data types.Product) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Name, data.Description, data.CategoryID, data.PriceCents, data.ImageURL, data.InStock, data.Active, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// GetProduct 根据ID获取商品记录
func (s *ProductStore) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Product
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// Update 整体更新商品记录
func (s *ProductStore) Update(ctx context.Context, data types.Product) error {
	query := sq.Update(s.GetTable()).
		Set("name", data.Name).
		Set("description", data.Description).
		Set("category_id", data.CategoryID).
		Set("price_cents", data.PriceCents).
		Set("image_url", data.ImageURL).
		Set("in_stock", data.InStock).
		Set("active", data.Active).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": data.ID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Delete 删除商品记录
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// ListProducts 分页获取商品记录列表
func (s *ProductStore) ListProducts(ctx context.Context, opts types.ListProductOptions, page, pageSize uint64) ([]types.Product, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC")
	if pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Product
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// Search 全文检索商品名称与描述，无命中时 ILIKE 兜底
func (s *ProductStore) Search(ctx context.Context, keywords string, limit uint64) ([]types.Product, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"active": true}).
		Where(sq.Expr("to_tsvector('simple', name || ' ' || description) @@ websearch_to_tsquery('simple', ?)", keywords)).
		Limit(limit)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Product
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	if len(res) > 0 {
		return res, nil
	}

	fallback := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"active": true}).
		Where(sq.Or{
			sq.ILike{"name": "%" + keywords + "%"},
			sq.ILike{"description": "%" + keywords + "%"},
		}).
		Limit(limit)

	queryString, args, err = fallback.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ProductStore) Total(ctx context.Context, opts types.ListProductOptions) (int64, error) {
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

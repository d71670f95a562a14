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
		provider.stores.BannerStore = NewBannerStore(provider)
	})
}

type BannerStore struct {
	CommonFields
}

func NewBannerStore(provider SqlProviderAchieve) *BannerStore {
	repo := &BannerStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_BANNER)
	repo.SetAllColumns("id", "title", "image_url", "target_url", "active", "starts_at", "ends_at", "created_at")
	return repo
}

func (s *BannerStore) Create(ctx context.Context, data types.Banner) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Title, data.ImageURL, data.TargetURL, data.Active, data.StartsAt, data.EndsAt, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// ListActive 返回 now 时刻生效的 banner，ends_at=0 表示长期有效
func (s *BannerStore) ListActive(ctx context.Context, now int64) ([]types.Banner, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"active": true}).
		Where(sq.LtOrEq{"starts_at": now}).
		Where(sq.Or{sq.Eq{"ends_at": 0}, sq.GtOrEq{"ends_at": now}}).
		OrderBy("created_at DESC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Banner
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *BannerStore) Delete(ctx context.Context, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

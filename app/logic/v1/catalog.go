package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

// CatalogLogic 商品目录的薄管理管道，兜底问答与会话详情消费这些数据。
type CatalogLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewCatalogLogic(ctx context.Context, core *core.Core) *CatalogLogic {
	return &CatalogLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *CatalogLogic) CreateProduct(data types.Product) (*types.Product, error) {
	if data.Name == "" {
		return nil, errors.New("CatalogLogic.CreateProduct.name", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusUnprocessableEntity)
	}
	if data.ID == "" {
		data.ID = utils.GenUniqIDStr()
	}
	if err := l.core.Store().ProductStore().Create(l.ctx, data); err != nil {
		return nil, errors.New("CatalogLogic.CreateProduct.ProductStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return &data, nil
}

func (l *CatalogLogic) GetProduct(id string) (*types.Product, error) {
	product, err := l.core.Store().ProductStore().GetProduct(l.ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("CatalogLogic.GetProduct.ProductStore.GetProduct", i18n.ERROR_INTERNAL, err)
	}
	if product == nil {
		return nil, errors.New("CatalogLogic.GetProduct.nil", i18n.ERROR_NOT_FOUND, err).Code(http.StatusNotFound)
	}
	return product, nil
}

func (l *CatalogLogic) UpdateProduct(data types.Product) error {
	if _, err := l.GetProduct(data.ID); err != nil {
		return err
	}
	if err := l.core.Store().ProductStore().Update(l.ctx, data); err != nil {
		return errors.New("CatalogLogic.UpdateProduct.ProductStore.Update", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (l *CatalogLogic) DeleteProduct(id string) error {
	if err := l.core.Store().ProductStore().Delete(l.ctx, id); err != nil {
		return errors.New("CatalogLogic.DeleteProduct.ProductStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (l *CatalogLogic) ListProducts(opts types.ListProductOptions, page, pageSize uint64) ([]types.Product, int64, error) {
	list, err := l.core.Store().ProductStore().ListProducts(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, errors.New("CatalogLogic.ListProducts.ProductStore.ListProducts", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().ProductStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("CatalogLogic.ListProducts.ProductStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

func (l *CatalogLogic) CreateCategory(data types.Category) (*types.Category, error) {
	if data.Name == "" {
		return nil, errors.New("CatalogLogic.CreateCategory.name", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusUnprocessableEntity)
	}
	if data.ID == "" {
		data.ID = utils.GenUniqIDStr()
	}
	if err := l.core.Store().CategoryStore().Create(l.ctx, data); err != nil {
		return nil, errors.New("CatalogLogic.CreateCategory.CategoryStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return &data, nil
}

func (l *CatalogLogic) ListCategories(activeOnly bool) ([]types.Category, error) {
	list, err := l.core.Store().CategoryStore().ListCategories(l.ctx, activeOnly)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("CatalogLogic.ListCategories.CategoryStore.ListCategories", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *CatalogLogic) DeleteCategory(id string) error {
	if err := l.core.Store().CategoryStore().Delete(l.ctx, id); err != nil {
		return errors.New("CatalogLogic.DeleteCategory.CategoryStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (l *CatalogLogic) CreateBanner(data types.Banner) (*types.Banner, error) {
	if data.Title == "" {
		return nil, errors.New("CatalogLogic.CreateBanner.title", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusUnprocessableEntity)
	}
	if data.ID == "" {
		data.ID = utils.GenUniqIDStr()
	}
	if err := l.core.Store().BannerStore().Create(l.ctx, data); err != nil {
		return nil, errors.New("CatalogLogic.CreateBanner.BannerStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return &data, nil
}

func (l *CatalogLogic) ListActiveBanners() ([]types.Banner, error) {
	list, err := l.core.Store().BannerStore().ListActive(l.ctx, time.Now().Unix())
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("CatalogLogic.ListActiveBanners.BannerStore.ListActive", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *CatalogLogic) DeleteBanner(id string) error {
	if err := l.core.Store().BannerStore().Delete(l.ctx, id); err != nil {
		return errors.New("CatalogLogic.DeleteBanner.BannerStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// OrderLogic 订单查询管道，仅支撑客服与兜底问答场景。
type OrderLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewOrderLogic(ctx context.Context, core *core.Core) *OrderLogic {
	return &OrderLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *OrderLogic) CreateOrder(data types.Order) (*types.Order, error) {
	if data.UserID == "" || len(data.Items) == 0 {
		return nil, errors.New("OrderLogic.CreateOrder.args", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusUnprocessableEntity)
	}
	if data.ID == "" {
		data.ID = utils.GenUniqIDStr()
	}
	if data.Status == "" {
		data.Status = types.ORDER_STATUS_PLACED
	}
	if err := l.core.Store().OrderStore().Create(l.ctx, data); err != nil {
		return nil, errors.New("OrderLogic.CreateOrder.OrderStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return &data, nil
}

func (l *OrderLogic) GetOrder(id string) (*types.Order, error) {
	order, err := l.core.Store().OrderStore().GetOrder(l.ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("OrderLogic.GetOrder.OrderStore.GetOrder", i18n.ERROR_INTERNAL, err)
	}
	if order == nil {
		return nil, errors.New("OrderLogic.GetOrder.nil", i18n.ERROR_NOT_FOUND, err).Code(http.StatusNotFound)
	}
	return order, nil
}

func (l *OrderLogic) UpdateStatus(id, status string) error {
	switch status {
	case types.ORDER_STATUS_PLACED, types.ORDER_STATUS_PACKING, types.ORDER_STATUS_DISPATCHED,
		types.ORDER_STATUS_DELIVERED, types.ORDER_STATUS_CANCELLED:
	default:
		return errors.New("OrderLogic.UpdateStatus.status", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusUnprocessableEntity)
	}
	if _, err := l.GetOrder(id); err != nil {
		return err
	}
	if err := l.core.Store().OrderStore().UpdateStatus(l.ctx, id, status); err != nil {
		return errors.New("OrderLogic.UpdateStatus.OrderStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (l *OrderLogic) ListOrders(userID string, page, pageSize uint64) ([]types.Order, error) {
	list, err := l.core.Store().OrderStore().ListOrders(l.ctx, userID, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("OrderLogic.ListOrders.OrderStore.ListOrders", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

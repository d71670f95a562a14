package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/dashmart-ai/dashmart/app/logic/v1"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

func (s *HttpSrv) CreateProduct(c *gin.Context) {
	var req types.Product
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	product, err := v1.NewCatalogLogic(c, s.Core).CreateProduct(req)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.CreateProduct", err))
		return
	}
	response.APISuccess(c, product)
}

func (s *HttpSrv) GetProduct(c *gin.Context) {
	id, _ := c.Params.Get("id")
	product, err := v1.NewCatalogLogic(c, s.Core).GetProduct(id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.GetProduct", err))
		return
	}
	response.APISuccess(c, product)
}

func (s *HttpSrv) UpdateProduct(c *gin.Context) {
	id, _ := c.Params.Get("id")
	var req types.Product
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	req.ID = id

	if err := v1.NewCatalogLogic(c, s.Core).UpdateProduct(req); err != nil {
		response.APIError(c, errors.Trace("HttpSrv.UpdateProduct", err))
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) DeleteProduct(c *gin.Context) {
	id, _ := c.Params.Get("id")
	if err := v1.NewCatalogLogic(c, s.Core).DeleteProduct(id); err != nil {
		response.APIError(c, errors.Trace("HttpSrv.DeleteProduct", err))
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) ListProducts(c *gin.Context) {
	page, pageSize := bindPagination(c)
	opts := types.ListProductOptions{
		CategoryID: c.Query("category_id"),
		ActiveOnly: c.Query("active") == "true",
	}
	if inStock := c.Query("in_stock"); inStock != "" {
		val := inStock == "true"
		opts.InStock = &val
	}

	list, total, err := v1.NewCatalogLogic(c, s.Core).ListProducts(opts, page, pageSize)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListProducts", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}

func (s *HttpSrv) CreateCategory(c *gin.Context) {
	var req types.Category
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	category, err := v1.NewCatalogLogic(c, s.Core).CreateCategory(req)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.CreateCategory", err))
		return
	}
	response.APISuccess(c, category)
}

func (s *HttpSrv) ListCategories(c *gin.Context) {
	list, err := v1.NewCatalogLogic(c, s.Core).ListCategories(c.Query("all") != "true")
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListCategories", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list": list,
	})
}

func (s *HttpSrv) DeleteCategory(c *gin.Context) {
	id, _ := c.Params.Get("id")
	if err := v1.NewCatalogLogic(c, s.Core).DeleteCategory(id); err != nil {
		response.APIError(c, errors.Trace("HttpSrv.DeleteCategory", err))
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) CreateBanner(c *gin.Context) {
	var req types.Banner
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	banner, err := v1.NewCatalogLogic(c, s.Core).CreateBanner(req)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.CreateBanner", err))
		return
	}
	response.APISuccess(c, banner)
}

func (s *HttpSrv) ListActiveBanners(c *gin.Context) {
	list, err := v1.NewCatalogLogic(c, s.Core).ListActiveBanners()
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListActiveBanners", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list": list,
	})
}

func (s *HttpSrv) DeleteBanner(c *gin.Context) {
	id, _ := c.Params.Get("id")
	if err := v1.NewCatalogLogic(c, s.Core).DeleteBanner(id); err != nil {
		response.APIError(c, errors.Trace("HttpSrv.DeleteBanner", err))
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) CreateOrder(c *gin.Context) {
	var req types.Order
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	order, err := v1.NewOrderLogic(c, s.Core).CreateOrder(req)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.CreateOrder", err))
		return
	}
	response.APISuccess(c, order)
}

func (s *HttpSrv) GetOrder(c *gin.Context) {
	id, _ := c.Params.Get("id")
	order, err := v1.NewOrderLogic(c, s.Core).GetOrder(id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.GetOrder", err))
		return
	}
	response.APISuccess(c, order)
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *HttpSrv) UpdateOrderStatus(c *gin.Context) {
	id, _ := c.Params.Get("id")
	var req UpdateOrderStatusRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err := v1.NewOrderLogic(c, s.Core).UpdateStatus(id, req.Status); err != nil {
		response.APIError(c, errors.Trace("HttpSrv.UpdateOrderStatus", err))
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) ListOrders(c *gin.Context) {
	page, pageSize := bindPagination(c)
	list, err := v1.NewOrderLogic(c, s.Core).ListOrders(c.Query("user_id"), page, pageSize)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListOrders", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list": list,
	})
}

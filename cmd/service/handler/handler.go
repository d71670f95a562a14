package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

// HttpSrv HTTP服务结构
type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}

func bindPagination(c *gin.Context) (page, pageSize uint64) {
	page, _ = strconv.ParseUint(c.Query("page"), 10, 64)
	pageSize, _ = strconv.ParseUint(c.Query("pagesize"), 10, 64)
	if page == 0 {
		page = types.DEFAULT_PAGE
	}
	if pageSize == 0 || pageSize > 100 {
		pageSize = types.DEFAULT_PAGE_SIZE
	}
	return
}

package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/dashmart-ai/dashmart/app/logic/v1"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/cmd/service/middleware"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

type CreateAdminUserRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role"`
}

// CreateAdminUser 创建后台账号，token 仅创建时返回一次。
func (s *HttpSrv) CreateAdminUser(c *gin.Context) {
	var req CreateAdminUserRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	user, err := v1.NewAdminLogic(c, s.Core).CreateAdminUser(middleware.InjectAdminUser(c), req.Name, req.Role)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.CreateAdminUser", err))
		return
	}
	response.APISuccess(c, gin.H{
		"user":  user,
		"token": user.Token,
	})
}

func (s *HttpSrv) ListAdminUsers(c *gin.Context) {
	page, pageSize := bindPagination(c)
	list, err := v1.NewAdminLogic(c, s.Core).ListAdminUsers(page, pageSize)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListAdminUsers", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list": list,
	})
}

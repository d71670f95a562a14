package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/pkg/auth"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

type AdminLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewAdminLogic(ctx context.Context, core *core.Core) *AdminLogic {
	return &AdminLogic{
		ctx:  ctx,
		core: core,
	}
}

// VerifyToken 后台鉴权，token 不匹配任何账号即未授权。
// 命中记录会在 redis 里缓存一段时间，降低每请求一次的回源查询。
func (l *AdminLogic) VerifyToken(token string) (*types.AdminUser, error) {
	if token == "" {
		return nil, errors.New("AdminLogic.VerifyToken.empty", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}
	if cached := auth.GetAdminFromCache(l.ctx, l.core.Redis(), token); cached != nil {
		return cached, nil
	}

	user, err := l.core.Store().AdminUserStore().GetByToken(l.ctx, token)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("AdminLogic.VerifyToken.AdminUserStore.GetByToken", i18n.ERROR_INTERNAL, err)
	}
	if user == nil {
		return nil, errors.New("AdminLogic.VerifyToken.nil", i18n.ERROR_UNAUTHORIZED, err).Code(http.StatusUnauthorized)
	}

	if err = auth.CacheAdmin(l.ctx, l.core.Redis(), token, user); err != nil {
		slog.Warn("failed to cache admin token", slog.String("error", err.Error()))
	}
	return user, nil
}

// CreateAdminUser 仅 admin 角色可以开新账号，agent 不行。
func (l *AdminLogic) CreateAdminUser(caller *types.AdminUser, name, role string) (*types.AdminUser, error) {
	if caller == nil || caller.Role != types.ADMIN_ROLE_ADMIN {
		return nil, errors.New("AdminLogic.CreateAdminUser.caller", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden)
	}
	if name == "" {
		return nil, errors.New("AdminLogic.CreateAdminUser.name", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusUnprocessableEntity)
	}
	if role != types.ADMIN_ROLE_ADMIN && role != types.ADMIN_ROLE_AGENT {
		role = types.ADMIN_ROLE_AGENT
	}

	user := types.AdminUser{
		ID:    utils.GenUniqIDStr(),
		Name:  name,
		Token: utils.RandomStr(32),
		Role:  role,
	}
	if err := l.core.Store().AdminUserStore().Create(l.ctx, user); err != nil {
		return nil, errors.New("AdminLogic.CreateAdminUser.AdminUserStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return &user, nil
}

func (l *AdminLogic) ListAdminUsers(page, pageSize uint64) ([]types.AdminUser, error) {
	list, err := l.core.Store().AdminUserStore().ListAdminUsers(l.ctx, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("AdminLogic.ListAdminUsers.AdminUserStore.ListAdminUsers", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

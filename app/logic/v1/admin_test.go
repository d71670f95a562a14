package v1

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

func TestCreateAdminUserRequiresAdminRole(t *testing.T) {
	// 角色检查在任何存储访问前执行，无需真实依赖
	logic := &AdminLogic{ctx: context.Background()}

	_, err := logic.CreateAdminUser(nil, "new agent", types.ADMIN_ROLE_AGENT)
	require.Error(t, err)

	_, err = logic.CreateAdminUser(&types.AdminUser{ID: "a1", Role: types.ADMIN_ROLE_AGENT}, "new agent", types.ADMIN_ROLE_AGENT)
	require.Error(t, err)
	ce, ok := err.(*pkgerrors.CustomizedError)
	require.True(t, ok)
	assert.Equal(t, i18n.ERROR_PERMISSION_DENIED, ce.Message())
	assert.Equal(t, http.StatusForbidden, ce.GetCode())
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/dashmart-ai/dashmart/app/core"
	v1 "github.com/dashmart-ai/dashmart/app/logic/v1"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

const (
	AUTH_TOKEN_HEADER_KEY = "X-Authorization"

	ADMIN_CONTEXT_KEY = "admin_user"
	LANGUAGE_KEY      = "language"
)

func I18n() gin.HandlerFunc {
	var allowList []string
	for k := range i18n.ALLOW_LANG {
		allowList = append(allowList, k)
	}
	l := i18n.NewLocalizer(allowList...)

	return response.ProvideResponseLocalizer(l)
}

// AcceptLanguage 目前服务端支持 en: English, zh-CN: 简体中文
func AcceptLanguage() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		lang := ctx.Request.Header.Get("Accept-Language")
		if lang == "" {
			ctx.Set(LANGUAGE_KEY, types.LANGUAGE_EN_KEY)
			return
		}

		res := utils.ParseAcceptLanguage(lang)
		if len(res) == 0 {
			ctx.Set(LANGUAGE_KEY, types.LANGUAGE_EN_KEY)
			return
		}

		ctx.Set(LANGUAGE_KEY, lo.If(strings.Contains(res[0].Tag, "zh"), types.LANGUAGE_CN_KEY).Else(types.LANGUAGE_EN_KEY))
	}
}

// AdminAuthorization 后台接口鉴权，token 从 X-Authorization 头读取。
func AdminAuthorization(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.Request.Header.Get(AUTH_TOKEN_HEADER_KEY), "Bearer ")
		user, err := v1.NewAdminLogic(c, core).VerifyToken(token)
		if err != nil {
			response.APIError(c, errors.Trace("middleware.AdminAuthorization", err))
			return
		}
		c.Set(ADMIN_CONTEXT_KEY, user)
		c.Set("admin", user.ID)
	}
}

// AdminAuthorizationFromQuery websocket 握手场景无法携带自定义 header。
// token 缺省时按访客放行，后续由订阅校验限制可见主题。
func AdminAuthorizationFromQuery(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			return
		}
		user, err := v1.NewAdminLogic(c, core).VerifyToken(token)
		if err != nil {
			return
		}
		c.Set(ADMIN_CONTEXT_KEY, user)
		c.Set("admin", user.ID)
	}
}

// InjectAdminUser 取出鉴权中间件写入的后台账号。
func InjectAdminUser(c *gin.Context) *types.AdminUser {
	value, exists := c.Get(ADMIN_CONTEXT_KEY)
	if !exists {
		return nil
	}
	user, _ := value.(*types.AdminUser)
	return user
}

func Cors(c *gin.Context) {
	method := c.Request.Method
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, X-Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
	}
	if method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
	}
	c.Next()
}

type LimiterFunc func(key string, opts ...core.LimitOption) gin.HandlerFunc

func UseLimit(appCore *core.Core, genKeyFunc func(c *gin.Context) string, opts ...core.LimitOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appCore.UseLimiter(genKeyFunc(c), opts...).Allow() {
			response.APIError(c, errors.New("middleware.limiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
		}
	}
}

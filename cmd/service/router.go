package service

import (
	"github.com/gin-gonic/gin"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/cmd/service/handler"
	"github.com/dashmart-ai/dashmart/cmd/service/middleware"
	"github.com/dashmart-ai/dashmart/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func GetIPLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, func(c *gin.Context) string {
			return key + ":" + c.ClientIP()
		}, opts...)
	}
}

func GetSessionLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, func(c *gin.Context) string {
			if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
				return key + ":" + sessionID
			}
			return key + ":" + c.ClientIP()
		}, opts...)
	}
}

func GetAdminLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, func(c *gin.Context) string {
			if admin := middleware.InjectAdminUser(c); admin != nil {
				return key + ":" + admin.ID
			}
			return key + ":" + c.ClientIP()
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	ipLimit := GetIPLimitBuilder(s.Core)
	sessionLimit := GetSessionLimitBuilder(s.Core)
	adminLimit := GetAdminLimitBuilder(s.Core)

	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.AcceptLanguage())

	apiV1 := s.Engine.Group("/api/v1")
	{
		apiV1.GET("/connect", middleware.AdminAuthorizationFromQuery(s.Core), handler.Websocket(s.Core))

		chat := apiV1.Group("/chat")
		{
			chat.POST("/message", sessionLimit("chat_message", core.WithLimit(20)), s.SendChatMessage)
			chat.GET("/history/:conversation_id", ipLimit("chat_history"), s.GetChatHistory)
		}

		// 店面只读接口，无需登录
		store := apiV1.Group("/store")
		{
			store.GET("/products", ipLimit("store_browse"), s.ListProducts)
			store.GET("/products/:id", s.GetProduct)
			store.GET("/categories", s.ListCategories)
			store.GET("/banners", s.ListActiveBanners)
		}

		admin := apiV1.Group("/admin")
		admin.Use(middleware.AdminAuthorization(s.Core))
		{
			knowledge := admin.Group("/knowledge")
			{
				knowledge.POST("/upload", adminLimit("knowledge_upload", core.WithLimit(5)), s.UploadKnowledgeDocument)
				knowledge.GET("/list", s.ListKnowledgeDocuments)
				knowledge.GET("/:id", s.GetKnowledgeDocument)
				knowledge.PUT("/:id", s.UpdateKnowledgeDocument)
				knowledge.DELETE("/:id", s.DeleteKnowledgeDocument)
				knowledge.POST("/:id/reindex", adminLimit("knowledge_upload", core.WithLimit(5)), s.ReindexKnowledgeDocument)
				knowledge.GET("/:id/chunks", s.ListKnowledgeChunks)
			}

			conversation := admin.Group("/conversations")
			{
				conversation.GET("/list", s.ListConversations)
				conversation.GET("/:id", s.GetConversationDetail)
				conversation.POST("/:id/assign", s.AssignConversation)
				conversation.POST("/:id/takeover", s.TakeoverConversation)
				conversation.POST("/:id/return", s.ReturnConversationToAI)
				conversation.POST("/:id/close", s.CloseConversation)
				conversation.PUT("/:id/review", s.SetConversationNeedsReview)
				conversation.POST("/:id/message", s.SendHumanMessage)
				conversation.GET("/:id/audits", s.ListConversationAudits)
			}

			trace := admin.Group("/rag/traces")
			{
				trace.GET("/list", s.ListRagTraces)
				trace.GET("/:id", s.GetRagTrace)
			}

			catalog := admin.Group("/catalog")
			{
				catalog.POST("/products", s.CreateProduct)
				catalog.PUT("/products/:id", s.UpdateProduct)
				catalog.DELETE("/products/:id", s.DeleteProduct)
				catalog.POST("/categories", s.CreateCategory)
				catalog.DELETE("/categories/:id", s.DeleteCategory)
				catalog.POST("/banners", s.CreateBanner)
				catalog.DELETE("/banners/:id", s.DeleteBanner)
			}

			order := admin.Group("/orders")
			{
				order.POST("", s.CreateOrder)
				order.GET("/list", s.ListOrders)
				order.GET("/:id", s.GetOrder)
				order.PUT("/:id/status", s.UpdateOrderStatus)
			}

			user := admin.Group("/users")
			{
				user.POST("", s.CreateAdminUser)
				user.GET("/list", s.ListAdminUsers)
			}
		}
	}
}

package app

import (
	"ascendra_backend/docs"
	"ascendra_backend/internal/config"
	"ascendra_backend/internal/middleware"
	"ascendra_backend/internal/model"
	"ascendra_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/profile", c.user.UpdateProfile)
		authGroup.POST("/profile/avatar", c.user.UploadAvatar)

		social := authGroup.Group("/social")
		{
			social.GET("/find-matches", c.social.FindMatches)
			social.POST("/connect", c.social.Connect)
			social.GET("/connection-requests", c.social.ListConnectionRequests)
			social.POST("/respond-request", c.social.RespondRequest)
			social.GET("/connections", c.social.ListConnections)
			social.GET("/skill-swaps", c.social.ListOwnSkillSwaps)
			social.POST("/skill-swaps", c.social.CreateSkillSwap)
			social.GET("/available-skill-swaps", c.social.Marketplace)
			social.GET("/events", c.social.Events)
		}

		chat := authGroup.Group("/chat")
		{
			chat.POST("/message", c.chat.SendMessage)
			chat.GET("/conversations", c.chat.ListConversations)
			chat.POST("/conversations", c.chat.CreateConversation)
			chat.GET("/conversations/:id", c.chat.GetConversation)
			chat.DELETE("/conversations/:id", c.chat.DeleteConversation)
		}

		// 管理员接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.GET("/users", c.user.ListUsers)
			admin.PUT("/users/:id/status", c.user.SetUserStatus)
		}
	}
}

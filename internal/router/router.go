package router

import (
	"newsroom/internal/handlers"
	"newsroom/internal/middleware"
	"newsroom/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "newsroom_session"

// Services 路由依赖的业务服务
type Services struct {
	Auth          *services.AuthService
	Articles      *services.ArticleService
	Importer      *services.SyndicationImporter
	Subscriptions *services.SubscriptionService
	Publishers    *services.PublisherService
	Notifications *services.NotificationService
	Newsletters   *services.NewsletterService
	Redelivery    *services.RedeliveryService
}

// Setup 安装 session 与当前用户中间件并注册路由
func Setup(r *gin.Engine, svc Services, sessionSecret string) {
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 86400 * 7})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(svc.Auth))

	RegisterRoutes(r, svc)
}

func RegisterRoutes(r *gin.Engine, svc Services) {
	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	articleHandler := handlers.NewArticleHandler(svc.Articles, svc.Importer)
	subscriptionHandler := handlers.NewSubscriptionHandler(svc.Subscriptions)
	publisherHandler := handlers.NewPublisherHandler(svc.Publishers)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, svc.Redelivery)
	newsletterHandler := handlers.NewNewsletterHandler(svc.Newsletters)

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.POST("/auth/register", authHandler.Register) // 注册
	api.POST("/auth/login", authHandler.Login)       // 登录
	api.POST("/auth/logout", authHandler.Logout)     // 退出登录

	api.GET("/articles", articleHandler.List)                 // 可见文章列表
	api.GET("/articles/:id", articleHandler.Detail)           // 文章详情
	api.GET("/publishers", publisherHandler.List)             // 出版方列表
	api.GET("/journalists", publisherHandler.ListJournalists) // 记者列表
	api.GET("/newsletters", newsletterHandler.List)           // 简报列表

	// 受保护路由 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)
		authorized.DELETE("/auth/account", authHandler.DeleteAccount) // 注销账号

		authorized.POST("/articles", articleHandler.Create)                         // 投稿（草稿）
		authorized.POST("/articles/import", articleHandler.Import)                  // 从 RSS 导入草稿
		authorized.PUT("/articles/:id", articleHandler.Update)                      // 修改文章
		authorized.DELETE("/articles/:id", articleHandler.Delete)                   // 删除文章
		authorized.POST("/articles/:id/approve", articleHandler.Approve)            // 审核通过
		authorized.POST("/articles/:id/redispatch", notificationHandler.Redispatch) // 补发通知

		authorized.POST("/publishers", publisherHandler.Create)
		authorized.DELETE("/publishers/:id", publisherHandler.Delete)
		authorized.POST("/publishers/:id/staff", publisherHandler.AddStaff)

		authorized.POST("/subscriptions", subscriptionHandler.Manage)       // 订阅 / 取消订阅
		authorized.GET("/subscriptions/status", subscriptionHandler.Status) // 是否已订阅

		authorized.GET("/notifications", notificationHandler.List) // 我的通知
		authorized.POST("/newsletters", newsletterHandler.Create)  // 发布简报
	}
}

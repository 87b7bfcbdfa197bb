package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lostfound-backend/internal/config"
	"github.com/ignatzorin/lostfound-backend/internal/http/handlers"
	"github.com/ignatzorin/lostfound-backend/internal/http/middleware"
	newHandler "github.com/ignatzorin/lostfound-backend/internal/interface/http/handler"
	"github.com/ignatzorin/lostfound-backend/internal/metrics"
)

// Handlers набор хэндлеров, которые регистрирует роутер.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Profile   *handlers.ProfileHandler
	Health    *handlers.HealthHandler
	WS        *handlers.WSHandler
	Item      *newHandler.ItemHandler
	Claim     *newHandler.ClaimHandler
	Messaging *newHandler.MessagingHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.TokenParser) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(metrics.GinMiddleware())

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/send-otp", h.Auth.SendOTP)
		authGroup.POST("/register-complete", h.Auth.CompleteRegistration)
		authGroup.POST("/login", h.Auth.Login)
	}

	// WebSocket авторизуется токеном из query.
	api.GET("/ws", h.WS.Handle)

	// Лента объявлений открыта без авторизации.
	api.GET("/items", h.Item.ListItems)
	api.GET("/items/:id", h.Item.GetItem)

	users := api.Group("/users/:id")
	users.Use(middleware.UUIDValidator("id"))
	{
		users.GET("", h.Profile.GetProfile)
		users.GET("/reputation", h.Profile.GetReputation)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.POST("/items", h.Item.CreateItem)
		protected.POST("/items/:id/image", h.Item.UploadImage)

		// Подбор PIN ограничиваем отдельно от общего трафика.
		claims := protected.Group("/items/:id")
		claims.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
		{
			claims.POST("/pin", h.Claim.MintPin)
			claims.POST("/verify", h.Claim.VerifyPin)
		}

		protected.POST("/items/:id/messages", h.Messaging.PostMessage)
		protected.GET("/items/:id/thread", h.Messaging.GetThread)
		protected.GET("/items/:id/thread/:otherUserId", h.Messaging.GetThreadWith)
	}

	return r
}

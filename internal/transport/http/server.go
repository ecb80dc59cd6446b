package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maulanarr/duochat-server/internal/auth"
	"github.com/maulanarr/duochat-server/internal/config"
	"github.com/maulanarr/duochat-server/internal/core"
	"github.com/maulanarr/duochat-server/internal/service/chat"
	"github.com/maulanarr/duochat-server/internal/store"
)

// NewServer builds the HTTP server with all REST and WebSocket routes.
func NewServer(hub *core.Hub, authService *auth.Service, chatService *chat.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	chatHandlers := NewChatHandlers(chatService, logger)
	userHandlers := NewUserHandlers(st, logger)
	uploadHandlers := NewUploadHandlers(cfg.UploadDir, logger)

	engine.GET("/health", healthHandler)
	engine.Static("/uploads", cfg.UploadDir)
	engine.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, logger)))

	api := engine.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	protected := api.Group("")
	protected.Use(AuthMiddleware(authService, logger))
	protected.GET("/me", userHandlers.GetMe)
	protected.PUT("/me", userHandlers.UpdateMe)
	protected.GET("/users", userHandlers.ListUsers)
	protected.GET("/chats", chatHandlers.ListChats)
	protected.GET("/chats/:chatID", chatHandlers.GetChat)
	protected.POST("/chats/with/:userID", chatHandlers.GetOrCreateChat)
	protected.POST("/upload", uploadHandlers.Upload)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

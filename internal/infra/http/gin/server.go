package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"github.com/sarvagya80/SarvTribe/internal/infra/config"
	"github.com/sarvagya80/SarvTribe/internal/infra/obs"
)

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

type MessageHTTP interface {
	Send(c *gin.Context)
	ChatHistory(c *gin.Context)
	Conversations(c *gin.Context)
}

type StreamHTTP interface {
	Subscribe(c *gin.Context)
}

type ConnectionHTTP interface {
	Request(c *gin.Context)
	Accept(c *gin.Context)
}

type Handlers struct {
	Auth           AuthHTTP
	Message        MessageHTTP
	Stream         StreamHTTP
	Connection     ConnectionHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Message != nil || h.Stream != nil {
		messageGroup := api.Group("/message")
		if h.Stream != nil {
			messageGroup.GET("/stream", h.Stream.Subscribe)
		}
		if h.Message != nil {
			messageGroup.POST("/send", h.Message.Send)
			messageGroup.GET("/chat/:otherUserId", h.Message.ChatHistory)
			messageGroup.GET("/conversations", h.Message.Conversations)
		}
	}
	if h.Connection != nil {
		userGroup := api.Group("/user")
		userGroup.POST("/connect", h.Connection.Request)
		userGroup.POST("/accept", h.Connection.Accept)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

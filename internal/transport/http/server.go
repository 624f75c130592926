package http

import (
	"github.com/gin-gonic/gin"

	"yyss-assistant/internal/bootstrap"
	"yyss-assistant/internal/transport/http/handler"
	"yyss-assistant/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLog(app.Logger.With("component", "http")), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	authHandler := handler.NewAuthHandler(app.AuthService)
	assistantHandler := handler.NewAssistantHandler(app.AssistantService, app.Config.MaxUploadBytes())
	requireAuth := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	assistantGroup := v1.Group("/assistant")
	assistantGroup.Use(requireAuth)
	assistantGroup.POST("/sessions", assistantHandler.CreateSession)
	assistantGroup.GET("/sessions", assistantHandler.ListSessions)
	assistantGroup.DELETE("/sessions/:id", assistantHandler.DeleteSession)
	assistantGroup.POST("/sessions/:id/document", assistantHandler.UploadDocument)
	assistantGroup.GET("/sessions/:id/document", assistantHandler.GetDocument)
	assistantGroup.POST("/sessions/:id/messages", assistantHandler.SendMessage)
	assistantGroup.GET("/sessions/:id/history", assistantHandler.GetHistory)
	assistantGroup.POST("/sessions/:id/reset", assistantHandler.ResetSession)

	return router
}

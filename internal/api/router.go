package api

import (
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AuthMiddleware *AuthMiddleware
	Health         gin.HandlerFunc

	CoupleHandler       *CoupleHandler
	LoveHandler         *LoveHandler
	RecoveryHandler     *RecoveryHandler
	MatchHandler        *MatchHandler
	NotificationHandler *NotificationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if cfg.Health != nil {
		r.GET("/healthz", cfg.Health)
	}

	api := r.Group("/api/v1")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Couple
	if h := cfg.CoupleHandler; h != nil {
		api.POST("/couple/code", h.GenerateCode)
		api.POST("/couple/connect", h.Connect)
		api.GET("/couple/status", h.Status)
		api.POST("/couple/disconnect", h.Disconnect)
	}

	// Love meter and memories
	if h := cfg.LoveHandler; h != nil {
		api.POST("/love/mood", h.SubmitMood)
		api.POST("/love/appreciation", h.SendAppreciation)
		api.GET("/love/status", h.Status)
		api.POST("/memories", h.AddMemory)
		api.GET("/memories", h.ListMemories)
	}

	if h := cfg.RecoveryHandler; h != nil {
		api.GET("/recovery", h.Status)
		api.POST("/recovery/action", h.SubmitAction)
	}

	if h := cfg.MatchHandler; h != nil {
		api.POST("/match/requests", h.SendRequest)
		api.POST("/match/requests/:id/respond", h.Respond)
	}

	if h := cfg.NotificationHandler; h != nil {
		api.GET("/notifications", h.List)
		api.PATCH("/notifications/read-all", h.MarkAllRead)
		api.PATCH("/notifications/:id/read", h.MarkRead)
	}

	return r
}

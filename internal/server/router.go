package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/skillbase/skillbase-backend/internal/handlers"
	"github.com/skillbase/skillbase-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware    *middleware.AuthMiddleware
	SubmissionHandler *handlers.SubmissionHandler
	AccountHandler    *handlers.AccountHandler
	MarketingHandler  *handlers.MarketingHandler
	StatementHandler  *handlers.StatementHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireServiceToken())
	{
		api.POST("/submissions/:id/complete", cfg.SubmissionHandler.Complete)
		api.POST("/users/provision", cfg.AccountHandler.Provision)
		api.POST("/users/sign_out", cfg.AccountHandler.SignOut)
		api.POST("/marketing/contacts", cfg.MarketingHandler.AddContact)
		api.GET("/marketing/contacts", cfg.MarketingHandler.GetContact)
		api.GET("/statements", cfg.StatementHandler.ListRecent)
	}

	return router
}

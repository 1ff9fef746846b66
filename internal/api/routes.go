package api

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/poolsim/internal/api/handlers"
	"github.com/playmatatu/poolsim/internal/auth"
	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/middleware"
	"github.com/playmatatu/poolsim/internal/session"
	"github.com/playmatatu/poolsim/internal/ws"
)

// SetupRoutes configures all API routes. db may be nil, in which case token issuance is
// unavailable and only anonymous envs can be created.
func SetupRoutes(router *gin.Engine, db *sqlx.DB, manager *session.Manager, hub *ws.Hub, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(manager))
		v1.GET("/table", handlers.GetTableGeometry(cfg))
		v1.POST("/auth/token", handlers.IssueToken(db, issuer))

		// Viewers are read-only and browsers cannot attach bearer headers to upgrades
		v1.GET("/envs/:id/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleEnvWebSocket(hub, manager))

		envs := v1.Group("/envs", middleware.RequireToken(issuer, cfg.AuthRequired))
		{
			envs.POST("", handlers.CreateEnv(manager))
			envs.GET("", handlers.ListEnvs(manager))
			envs.GET("/:id", handlers.GetEnv(manager))
			envs.DELETE("/:id", handlers.DeleteEnv(manager))
			envs.GET("/:id/observation", handlers.GetObservation(manager))
			envs.GET("/:id/snapshot", handlers.GetSnapshot(manager))
			envs.GET("/:id/actions", handlers.GetActions(manager))
			envs.POST("/:id/reset", handlers.ResetEnv(manager))
			envs.POST("/:id/step", handlers.StepEnv(manager))
		}
	}
}

package main

import (
	"database/sql"
	"net/http"
	"time"

	"sparrow-api/internal/auth"
	"sparrow-api/internal/httpapi"
	"sparrow-api/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h *httpapi.Handlers, authMW gin.HandlerFunc, db *sql.DB, rdb *redis.Client) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Identity-provider webhooks (public, shared-secret authenticated).
	r.POST("/webhooks/identity", h.IdentityWebhook)

	// protected API group
	api := r.Group("/api")
	api.Use(authMW)
	{
		api.GET("/me", h.Me)

		// CALLS
		api.POST("/calls/start", h.StartCall)
		api.GET("/calls", h.ListCalls)
		api.GET("/calls/:id", h.GetCall)
		api.POST("/calls/:id/end", h.EndCall)

		// PERSONAS / PROSPECTS
		api.POST("/personas/generate", h.GeneratePersona)
		api.POST("/prospects", h.CreateProspect)
		api.GET("/prospects", h.ListProspects)
		api.GET("/prospects/:id", h.GetProspect)
		api.DELETE("/prospects/:id", h.DeleteProspect)
		api.POST("/prospects/:id/favorite", h.ToggleFavorite)

		// PROGRESS / USAGE
		api.GET("/user/progress", h.GetProgress)
		api.GET("/user/usage", h.GetUsage)

		// ADMIN
		admin := api.Group("/admin")
		admin.Use(auth.RequireRole(auth.RoleAdmin))
		{
			admin.GET("/stats", h.AdminStats)
		}
	}
}

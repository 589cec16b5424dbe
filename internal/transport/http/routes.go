// Package http wires the gin engine: CORS, request-id, and the prompt
// handler routes covering the full HTTP API surface. Follows a
// transport/http/router.go route-group layering.
package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"brokle/internal/config"
	"brokle/internal/transport/http/handlers/prompt"
	"brokle/pkg/ulid"
)

// NewRouter builds the gin engine with middleware and every route bound.
func NewRouter(cfg *config.Config, h *prompt.Handler) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1")
	{
		prompts := v1.Group("/prompts")
		{
			prompts.GET("", h.SearchPrompts)
			prompts.POST("", h.CreatePrompt)
			prompts.GET("/:name", h.GetPrompt)
			prompts.PUT("/:name", h.UpdatePrompt)
			prompts.DELETE("/:name", h.DeletePrompt)
			prompts.POST("/:name/versions/:version/activate", h.ActivatePromptVersion)
		}

		v1.POST("/principles", h.CreatePrinciple)
		v1.POST("/sync", h.Sync)
	}

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = genRequestID()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func genRequestID() string {
	return ulid.New().String()
}

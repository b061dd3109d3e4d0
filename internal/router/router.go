package router

import (
	"github.com/gin-gonic/gin"
	"github.com/hyeonwoo/placecache/config"
	"github.com/hyeonwoo/placecache/internal/app/controller"
	"github.com/hyeonwoo/placecache/internal/middleware"
)

type Router struct {
	cacheController *controller.CacheController
	config          *config.Config
}

func NewRouter(cacheController *controller.CacheController, cfg *config.Config) *Router {
	return &Router{
		cacheController: cacheController,
		config:          cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "placecache API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		cache := v1.Group("/cache")
		{
			cache.POST("", r.cacheController.SaveExtraction)
			cache.GET("/search", r.cacheController.Search)
			cache.GET("/stats", r.cacheController.Stats)
			cache.GET("/export", r.cacheController.Export)
			cache.POST("/evict", r.cacheController.Evict)
			cache.GET("/:identifier", r.cacheController.GetCached)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With, accept, origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP engine with all routes configured.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(rateLimitMiddleware(10, 20))

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	api.GET("/feeds", handler.ListFeeds)
	api.GET("/news", handler.ListNews)
	api.GET("/news/:id", handler.GetNews)

	api.GET("/stats/users", handler.GetUserStats)
	api.GET("/stats/views", handler.GetDailyViews)
	api.GET("/stats/bookmarks", handler.GetDailyBookmarks)
	api.GET("/stats/categories", handler.GetCategoryRollup)

	// Write endpoints require the access key when one is configured.
	// No key means open access for local use.
	write := api.Group("")
	if apiAccessKey != "" {
		write.Use(authMiddleware(apiAccessKey))
	}
	write.POST("/feeds/refresh", handler.RefreshAllFeeds)
	write.POST("/feeds/:id/refresh", handler.RefreshFeed)
	write.POST("/news/:id/view", handler.RecordView)
	write.POST("/news/:id/bookmark", handler.AddBookmark)
	write.DELETE("/news/:id/bookmark", handler.RemoveBookmark)

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

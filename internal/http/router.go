package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/feed"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// RouterConfig holds the dependencies the HTTP endpoints need.
type RouterConfig struct {
	Database  *database.Database
	Registry  *feed.Registry
	Requester *feed.Requester
	Tracker   *runstate.Tracker
	Version   string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	feeds := NewFeedsController(cfg.Registry, cfg.Requester, cfg.Tracker)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Feed endpoints
	router.GET("/api/feeds/status", feeds.GetStatuses)
	router.GET("/api/feeds/progress", feeds.GetProgress)
	router.POST("/api/feeds/request", feeds.RequestFeeds)

	return router
}

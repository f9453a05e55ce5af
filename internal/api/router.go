package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fuelbot/internal/logging"
)

func NewRouter(logger *logging.Logger, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v0")
	{
		api.GET("/state", h.GetState)

		// Runs
		api.POST("/runs", h.TriggerRun)
		api.GET("/runs/last", h.GetLastRun)

		api.GET("/ws", h.HandleWebSocket)
	}
	return r
}

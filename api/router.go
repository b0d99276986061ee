package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the relay endpoints. Registration is the only mutating
// route that bypasses the session gate.
func NewRouter(h *Handler, log *slog.Logger) *gin.Engine {
	RegisterValidations()

	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())

	r.POST("/participants", h.Register)
	r.GET("/participants", h.ListParticipants)
	r.POST("/messages", h.PostMessage)
	r.GET("/messages", h.ListMessages)
	r.GET("/messages/search", h.SearchMessages)
	r.PUT("/messages/:id", h.EditMessage)
	r.DELETE("/messages/:id", h.DeleteMessage)
	r.POST("/status", h.RefreshStatus)
	r.GET("/stats", h.Stats)
	r.GET("/health", h.Health)

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

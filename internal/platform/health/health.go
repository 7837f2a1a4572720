package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves liveness and readiness probes.
type Handler struct {
	db      *gorm.DB
	service string
	started time.Time
}

// NewHandler creates a Handler. db may be nil when the service runs on in-memory storage.
func NewHandler(db *gorm.DB, service string) *Handler {
	return &Handler{db: db, service: service, started: time.Now().UTC()}
}

// RegisterRoutes mounts /health and /ready.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Live)
	r.GET("/ready", h.Ready)
}

// Live reports that the process is up.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready reports whether the storage backend answers.
func (h *Handler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "storage": "memory"})
		return
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "storage": h.db.Dialector.Name()})
}

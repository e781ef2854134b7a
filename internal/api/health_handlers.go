package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is the part of the database provider the readiness probe needs
type Pinger interface {
	Ping() error
}

// SessionCounter reports how many edit sessions are open
type SessionCounter interface {
	ActiveSessions() int
}

type HealthHandler struct {
	startTime time.Time
	db        Pinger
	sessions  SessionCounter
}

func NewHealthHandler(db Pinger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		db:        db,
		sessions:  sessions,
	}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "payperplay-profiles",
		"uptime":  time.Since(h.startTime).String(),
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database_not_configured",
		})
		return
	}
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database_unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"uptime":   time.Since(h.startTime).String(),
	})
}

// LivenessCheck handles GET /live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"uptime": time.Since(h.startTime).String(),
	})
}

// StatsCheck handles GET /stats (runtime snapshot for humans; Prometheus
// scrapes /metrics)
func (h *HealthHandler) StatsCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	activeSessions := 0
	if h.sessions != nil {
		activeSessions = h.sessions.ActiveSessions()
	}

	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":  time.Since(h.startTime).Seconds(),
		"active_sessions": activeSessions,
		"memory": gin.H{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	})
}

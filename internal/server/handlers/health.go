package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-snapshot/internal/state"
	"go.uber.org/zap"
)

type HealthHandler struct {
	store     *state.Store
	logger    *zap.Logger
	startTime time.Time
}

func NewHealthHandler(store *state.Store, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		logger:    logger,
		startTime: time.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

// Readiness turns ready once the first refresh has published anything,
// including the error snapshot.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.store.Version() == 0 {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Uptime:   time.Since(h.startTime).String(),
			Snapshot: "pending",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	status, snap := "ok", "fresh"
	switch current := h.store.Current(); {
	case h.store.Version() == 0:
		snap = "pending"
	case current != nil && current.Failed:
		status, snap = "degraded", "failed"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Snapshot:  snap,
	})
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"feedhook/app/feed"
	"feedhook/app/store"
)

func NewHandler(configCache *feed.ConfigCache, seenStore store.Store, version string) *Handler {
	return &Handler{
		configCache: configCache,
		seenStore:   seenStore,
		version:     version,
	}
}

func (h *Handler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "feedhook",
		"version":     h.version,
		"description": "RSS/Atom feed to webhook notifier with seen-item deduplication",
		"targets":     h.configCache.GetConfigCount(),
		"endpoints": gin.H{
			"health": "/health",
		},
	})
}

// GetHealth aggregates per-target processing metrics from the store. A
// target whose most recent run failed counts as failing; the service is
// degraded when some targets fail and unhealthy when all of them do.
func (h *Handler) GetHealth(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	targets := make(map[string]TargetStatus, len(configs))
	failing := 0
	for name := range configs {
		metrics, err := h.seenStore.GetMetrics(c.Request.Context(), name)
		if err != nil {
			slog.Error("Failed to load metrics", "target", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load metrics"})
			return
		}

		status := TargetStatus{}
		if metrics != nil {
			status.SuccessCount = metrics.SuccessCount
			status.ErrorCount = metrics.ErrorCount
			status.LastError = metrics.LastError
			if !metrics.LastRun.IsZero() {
				status.LastRun = metrics.LastRun.In(time.Local).Format(time.RFC3339)
			}
			if metrics.LastError != "" {
				failing++
			}
		}
		targets[name] = status
	}

	overall := "healthy"
	if failing > 0 {
		overall = "degraded"
	}
	if len(targets) > 0 && failing == len(targets) {
		overall = "unhealthy"
	}

	c.JSON(http.StatusOK, HealthStatus{
		Status:    overall,
		Timestamp: time.Now().In(time.Local).Format(time.RFC3339),
		Version:   h.version,
		Targets:   targets,
	})
}

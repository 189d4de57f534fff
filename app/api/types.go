package api

import (
	"feedhook/app/feed"
	"feedhook/app/store"
)

type Handler struct {
	configCache *feed.ConfigCache
	seenStore   store.Store
	version     string
}

// TargetStatus is the per-target slice of the health report.
type TargetStatus struct {
	LastRun      string `json:"last_run,omitempty"`
	SuccessCount int64  `json:"success_count"`
	ErrorCount   int64  `json:"error_count"`
	LastError    string `json:"last_error,omitempty"`
}

// HealthStatus aggregates target metrics into one service-level report.
type HealthStatus struct {
	Status    string                  `json:"status"` // healthy, degraded, unhealthy
	Timestamp string                  `json:"timestamp"`
	Version   string                  `json:"version"`
	Targets   map[string]TargetStatus `json:"targets"`
}

// Package store persists the seen-item set that suppresses duplicate
// notifications, plus per-target processing metrics. Keys are 64-character
// lowercase-hex link hashes; presence of a key means the item was already
// delivered (or is being delivered). Records expire after a configurable TTL.
package store

import (
	"context"
	"time"

	"feedhook/app/feed"
)

// SeenRecord is the persisted value for a delivered item, keyed by link hash.
type SeenRecord struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Metrics tracks per-target processing outcomes. Stored without TTL.
type Metrics struct {
	LastRun      time.Time `json:"last_run"`
	SuccessCount int64     `json:"success_count"`
	ErrorCount   int64     `json:"error_count"`
	LastError    string    `json:"last_error"`
}

type Store interface {
	// CheckExisting returns the subset of hashes already present. Unknown
	// keys are simply absent from the result; empty input yields empty
	// output.
	CheckExisting(ctx context.Context, hashes []string) ([]string, error)

	// StoreItem records a delivered item under its link hash with the
	// store's TTL. Overwriting an existing key is idempotent.
	StoreItem(ctx context.Context, item feed.Item) error

	// GetMetrics returns the metrics for a target, or nil when absent.
	GetMetrics(ctx context.Context, target string) (*Metrics, error)

	// UpdateMetrics overwrites the metrics for a target.
	UpdateMetrics(ctx context.Context, target string, m Metrics) error

	// PurgeExpired removes records past their TTL and reports how many were
	// deleted. Backends with native expiry report zero.
	PurgeExpired(ctx context.Context) (int64, error)

	Close() error
}

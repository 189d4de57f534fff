package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feedhook/app/feed"
	"feedhook/app/store"
	"feedhook/app/webhook"
)

// bodySnippetLen bounds how much of an upstream response body is logged for
// diagnosis.
const bodySnippetLen = 500

// ProcessFeedTask runs the full pipeline for one target: fetch, parse,
// extract, check the seen-set, deliver new items in feed order, and record
// delivered items. A failure anywhere aborts only this target for the
// current run; siblings are unaffected.
type ProcessFeedTask struct {
	Task
	Config        *feed.Config
	fetcher       *feed.Fetcher
	parser        *feed.Parser
	webhookClient *webhook.Client
	seenStore     store.Store
}

func NewProcessFeedTask(targetName string, config *feed.Config, fetcher *feed.Fetcher,
	parser *feed.Parser, webhookClient *webhook.Client, seenStore store.Store) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:          NewTask(TaskTypeProcessFeed, targetName),
		Config:        config,
		fetcher:       fetcher,
		parser:        parser,
		webhookClient: webhookClient,
		seenStore:     seenStore,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Settings.Enabled {
		slog.Debug("Target disabled, skipping", "target", t.TargetName)
		return nil
	}

	err := t.run(ctx)
	t.recordMetrics(ctx, err)
	return err
}

func (t *ProcessFeedTask) run(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Config.Settings.Timeout)*time.Second)
	result, err := t.fetcher.Run(fetchCtx, t.Config.Feed.URL)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	if !result.OK() {
		slog.Warn("Feed fetch returned non-success status",
			"target", t.TargetName, "status", result.Status, "body", bodySnippet(result.Body))
		return fmt.Errorf("feed fetch failed: %s", result.Status)
	}

	parsed, err := t.parser.Run(result.Body)
	if err != nil {
		slog.Warn("Feed parsing failed",
			"target", t.TargetName, "error", err, "body", bodySnippet(result.Body))
		return err
	}

	meta := t.parser.Metadata(parsed)
	slog.Debug("Feed parsed",
		"target", t.TargetName, "title", meta.Title, "link", meta.Link, "items", len(parsed.Items))

	items := t.parser.ExtractItems(parsed)

	hashes := make([]string, len(items))
	for i, item := range items {
		hashes[i] = item.LinkHash
	}

	existing, err := t.seenStore.CheckExisting(ctx, hashes)
	if err != nil {
		// Cannot safely determine which items are new without the seen-set
		return fmt.Errorf("failed to check seen items: %w", err)
	}

	existingSet := make(map[string]bool, len(existing))
	for _, hash := range existing {
		existingSet[hash] = true
	}

	newItems := make([]feed.Item, 0, len(items))
	for _, item := range items {
		if !existingSet[item.LinkHash] {
			newItems = append(newItems, item)
		}
	}

	// Items are delivered sequentially to respect the shared webhook retry
	// budget and avoid flooding the endpoint.
	delivered := 0
	failed := 0
	for _, item := range newItems {
		content := fmt.Sprintf("**%s | %s**\n\n%s", t.Config.Feed.Name, item.Title, item.Link)

		result, err := t.webhookClient.Send(ctx, t.Config.Webhook.URL, content)
		if err != nil {
			slog.Warn("Webhook delivery failed",
				"target", t.TargetName, "link", item.Link, "error", err)
			failed++
			continue
		}
		if !result.OK() {
			slog.Warn("Webhook returned non-success status",
				"target", t.TargetName, "link", item.Link, "status", result.Status, "body", bodySnippet(result.Body))
			failed++
			continue
		}
		delivered++

		if err := t.seenStore.StoreItem(ctx, item); err != nil {
			// The item was already delivered; accept the risk of re-delivery
			// on the next run rather than failing the target.
			slog.Warn("Failed to record delivered item",
				"target", t.TargetName, "hash", item.LinkHash, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", "ProcessFeed",
		"target", t.TargetName,
		"duration", t.GetDuration(),
		"total", len(items),
		"existing", len(existing),
		"new", len(newItems),
		"delivered", delivered,
		"failed", failed)

	return nil
}

func (t *ProcessFeedTask) recordMetrics(ctx context.Context, runErr error) {
	metrics, err := t.seenStore.GetMetrics(ctx, t.TargetName)
	if err != nil {
		slog.Warn("Failed to load metrics", "target", t.TargetName, "error", err)
		return
	}
	if metrics == nil {
		metrics = &store.Metrics{}
	}

	metrics.LastRun = time.Now()
	if runErr != nil {
		metrics.ErrorCount++
		metrics.LastError = runErr.Error()
	} else {
		metrics.SuccessCount++
		metrics.LastError = ""
	}

	if err := t.seenStore.UpdateMetrics(ctx, t.TargetName, *metrics); err != nil {
		slog.Warn("Failed to update metrics", "target", t.TargetName, "error", err)
	}
}

func bodySnippet(body []byte) string {
	if len(body) > bodySnippetLen {
		body = body[:bodySnippetLen]
	}
	return string(body)
}

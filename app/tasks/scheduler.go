package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedhook/app/cfg"
	"feedhook/app/feed"
	"feedhook/app/store"
	"feedhook/app/webhook"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs the processing pipeline on an interval. Each configured
// target becomes an independent task on the worker pool, so targets are
// processed concurrently and one target's failure never blocks another.
type Scheduler struct {
	configCache   *feed.ConfigCache
	fetcher       *feed.Fetcher
	parser        *feed.Parser
	webhookClient *webhook.Client
	seenStore     store.Store
	interval      time.Duration
	workerCount   int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
}

func NewScheduler(configCache *feed.ConfigCache, fetcher *feed.Fetcher, parser *feed.Parser,
	webhookClient *webhook.Client, seenStore store.Store) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache:   configCache,
		fetcher:       fetcher,
		parser:        parser,
		webhookClient: webhookClient,
		seenStore:     seenStore,
		interval:      time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:   cfg.WorkerCount,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.purgeExpired()
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	// Stop closes the queue after cancelling, so the ctx check must come
	// first: a send on the closed channel would panic.
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	configs := s.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		slog.Debug("No enabled target configurations found")
		return
	}

	slog.Debug("Scheduling target processing", "count", len(configs))

	for _, config := range configs {
		task := NewProcessFeedTask(config.Name, config, s.fetcher, s.parser, s.webhookClient, s.seenStore)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ProcessFeedTask", "target", config.Name, "error", err)
		}
	}
}

func (s *Scheduler) purgeExpired() {
	purgeCtx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()

	purged, err := s.seenStore.PurgeExpired(purgeCtx)
	if err != nil {
		slog.Warn("Failed to purge expired seen items", "error", err)
		return
	}
	if purged > 0 {
		slog.Debug("Purged expired seen items", "count", purged)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	// Target-level failures end here: logged, never propagated, so one
	// target cannot stop its siblings or the next cycle.
	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed",
			"worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(),
			"target", task.GetTargetName(), "error", err)
	}
}

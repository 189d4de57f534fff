package tasks

// TaskSchedulerInterface defines the interface for task scheduling
// operations. Used by the main application to manage background target
// processing.
// Example usage:
//
//	scheduler := NewScheduler(configCache, fetcher, parser, webhookClient, seenStore)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// JobProcessor defines the interface for work run on every scheduler tick
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker runs a JobProcessor on a fixed interval until stopped
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	runOnStart   bool
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// RunOnStart makes the worker process once immediately instead of waiting
// for the first tick.
func (w *Worker) RunOnStart() *Worker {
	w.runOnStart = true
	return w
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log := zap.L().With(zap.Duration("interval", w.pollInterval))
	log.Info("scheduler started")

	if w.runOnStart {
		w.process(ctx, log)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Info("scheduler stopped: stop signal received")
			return
		case <-ticker.C:
			w.process(ctx, log)
		}
	}
}

func (w *Worker) process(ctx context.Context, log *zap.Logger) {
	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Error("scheduled run failed", zap.Error(err))
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	zap.L().Info("scheduler shutdown complete")
}

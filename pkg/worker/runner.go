package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/selivandex/market-digest/pkg/logger"
)

// Worker interface that background workers should implement
type Worker interface {
	// Name returns worker name for logging
	Name() string
	// Run executes one iteration of work
	Run(ctx context.Context) error
}

// ScheduledWorker runs a Worker on a cron schedule. A run that is still in
// progress when the next tick fires causes that tick to be skipped.
type ScheduledWorker struct {
	worker Worker
	spec   string
	cron   *cron.Cron
	entry  cron.EntryID

	mu     sync.Mutex
	runCtx context.Context
	cancel context.CancelFunc
}

// NewScheduledWorker parses spec (standard five-field cron or a descriptor
// such as "@every 1h") in loc.
func NewScheduledWorker(worker Worker, spec string, loc *time.Location) (*ScheduledWorker, error) {
	if loc == nil {
		loc = time.UTC
	}
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Log.Named("cron")))

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	sw := &ScheduledWorker{
		worker: worker,
		spec:   spec,
		cron:   c,
	}

	id, err := c.AddFunc(spec, sw.runOnce)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	sw.entry = id

	return sw, nil
}

// Start begins scheduling. Runs receive a context derived from ctx.
func (sw *ScheduledWorker) Start(ctx context.Context) {
	sw.mu.Lock()
	sw.runCtx, sw.cancel = context.WithCancel(ctx)
	sw.mu.Unlock()

	sw.cron.Start()

	logger.Info("🚀 Worker scheduled",
		zap.String("worker", sw.worker.Name()),
		zap.String("schedule", sw.spec),
		zap.Time("next_run", sw.Next()),
	)
}

// Next returns the next scheduled run time.
func (sw *ScheduledWorker) Next() time.Time {
	return sw.cron.Entry(sw.entry).Next
}

// Stop cancels the running job and waits for it to return, up to timeout.
func (sw *ScheduledWorker) Stop(timeout time.Duration) {
	sw.mu.Lock()
	if sw.cancel != nil {
		sw.cancel()
	}
	sw.mu.Unlock()

	done := sw.cron.Stop().Done()

	select {
	case <-done:
		logger.Info("✅ Worker stopped gracefully",
			zap.String("worker", sw.worker.Name()),
		)
	case <-time.After(timeout):
		logger.Warn("⚠️ Worker stop timeout",
			zap.String("worker", sw.worker.Name()),
		)
	}
}

func (sw *ScheduledWorker) runOnce() {
	sw.mu.Lock()
	ctx := sw.runCtx
	sw.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := RunOnce(ctx, sw.worker); err != nil {
		logger.Error("worker execution failed",
			zap.String("worker", sw.worker.Name()),
			zap.Error(err),
		)
	}
}

// RunOnce executes a single iteration with timing logs.
func RunOnce(ctx context.Context, w Worker) error {
	start := time.Now()
	logger.Info("▶️ Worker run started", zap.String("worker", w.Name()))

	err := w.Run(ctx)

	logger.Info("⏹️ Worker run finished",
		zap.String("worker", w.Name()),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	return err
}

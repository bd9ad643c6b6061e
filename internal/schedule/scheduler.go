package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a named unit of background maintenance work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler runs jobs on standard five-field cron specs. Each job
// carries its own overlap guard: a tick that fires while the previous
// run is still active is skipped, never queued.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	return &CronScheduler{cron: cron.New()}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	logger := logutil.GetLogger(context.Background()).With(
		zap.String("job", job.Name()), zap.String("spec", spec),
	)
	entry := &scheduledJob{owner: c, job: job, spec: spec}
	if _, err := c.cron.AddJob(spec, entry); err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	logger.Info("job scheduled")
	return nil
}

// Start begins firing ticks. The context is handed to every job run, so
// cancelling it aborts in-flight work during shutdown.
func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop halts ticking and waits for any running job to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) runCtx() context.Context {
	if c.ctx != nil {
		return c.ctx
	}
	return context.Background()
}

type scheduledJob struct {
	owner   *CronScheduler
	job     Job
	spec    string
	running atomic.Bool
}

func (s *scheduledJob) Run() {
	if !s.running.CompareAndSwap(false, true) {
		logutil.GetLogger(context.Background()).With(
			zap.String("job", s.job.Name()),
		).Warn("previous run still active, tick skipped")
		return
	}
	defer s.running.Store(false)

	ctx := s.owner.runCtx()
	logger := logutil.GetLogger(ctx).With(
		zap.String("job", s.job.Name()), zap.String("spec", s.spec),
	)
	start := time.Now()
	logger.Info("job started")
	if err := s.job.Run(ctx); err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("cost", time.Since(start)))
		return
	}
	logger.Info("job done", zap.Duration("cost", time.Since(start)))
}

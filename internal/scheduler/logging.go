package scheduler

import (
	"context"
	"time"

	obscontext "github.com/crowngraphics/portal/internal/observability/context"
	obslogger "github.com/crowngraphics/portal/internal/observability/logger"
	"go.uber.org/zap"
)

type jobRun struct {
	job            string
	runID          string
	startedAt      time.Time
	processedCount int64
}

type jobRunKey struct{}

func (r *jobRun) AddProcessed(count int64) {
	if r == nil || count <= 0 {
		return
	}
	r.processedCount += count
}

func (s *Scheduler) startJobRun(ctx context.Context, job string) (context.Context, *jobRun) {
	if ctx == nil {
		ctx = context.Background()
	}
	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	return ctx, run
}

func jobRunFromContext(ctx context.Context) *jobRun {
	if ctx == nil {
		return nil
	}
	if run, ok := ctx.Value(jobRunKey{}).(*jobRun); ok {
		return run
	}
	return nil
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	log := obslogger.WithContext(ctx, s.log)
	if run := jobRunFromContext(ctx); run != nil {
		log = log.With(zap.String("job", run.job), zap.String("run_id", run.runID))
	}
	return log
}

func (s *Scheduler) logJobFinished(ctx context.Context, run *jobRun, err error) {
	fields := []zap.Field{
		zap.Int64("processed_count", run.processedCount),
		zap.Duration("duration", s.clock.Now().Sub(run.startedAt)),
	}
	if err != nil {
		s.logger(ctx).Warn("scheduler job failed", append(fields, zap.Error(err))...)
		return
	}
	s.logger(ctx).Debug("scheduler job finished", fields...)
}

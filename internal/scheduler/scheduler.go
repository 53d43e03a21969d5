package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/crowngraphics/portal/internal/auth/domain"
	"github.com/crowngraphics/portal/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobSessionSweep = "session_sweep"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log      *zap.Logger
	Sessions authdomain.SessionRepository
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   Config `optional:"true"`
}

// Scheduler runs periodic housekeeping for the portal.
type Scheduler struct {
	log      *zap.Logger
	cfg      Config
	genID    *snowflake.Node
	clock    clock.Clock
	sessions authdomain.SessionRepository
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Sessions == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler"),
		cfg:      p.Config.withDefaults(),
		genID:    p.GenID,
		clock:    p.Clock,
		sessions: p.Sessions,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name)
	err := fn(ctx)
	s.logJobFinished(ctx, run, err)
	if err == nil {
		return nil
	}

	// A deadline is a soft timeout; the next tick retries.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobSessionSweep, s.SessionSweepJob},
	}

	var err error
	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, s.runJob(ctx, job.Name, job.Run))
		}
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// SessionSweepJob deletes sessions that expired more than SessionRetention ago.
func (s *Scheduler) SessionSweepJob(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.cfg.SessionRetention)
	deleted, err := s.sessions.DeleteExpired(ctx, cutoff)
	if err != nil {
		return err
	}
	jobRunFromContext(ctx).AddProcessed(deleted)
	if deleted > 0 {
		s.logger(ctx).Info("expired sessions purged", zap.Int64("count", deleted))
	}
	return nil
}

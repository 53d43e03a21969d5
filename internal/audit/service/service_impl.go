package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/crowngraphics/portal/internal/audit/domain"
	"github.com/crowngraphics/portal/internal/authctx"
	"github.com/crowngraphics/portal/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	if entry.JobID == 0 {
		return auditdomain.ErrInvalidJob
	}
	if !validAction(entry.Action) {
		return auditdomain.ErrInvalidAction
	}
	if tx == nil {
		tx = s.db
	}

	actor := strings.TrimSpace(entry.Actor)
	if actor == "" {
		actor = authctx.ActorName(ctx)
	}

	row := auditdomain.JobLog{
		ID:            s.genID.Generate(),
		JobID:         entry.JobID,
		CreatedAt:     s.clock.Now().UTC(),
		ActorUsername: normalize(actor),
		Action:        entry.Action,
		Details:       normalize(entry.Details),
	}

	if err := s.repo.Insert(ctx, tx, &row); err != nil {
		s.log.Warn("failed to write job log",
			zap.String("action", string(entry.Action)),
			zap.Int64("job_id", entry.JobID.Int64()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, jobID snowflake.ID) ([]auditdomain.JobLog, error) {
	items, err := s.repo.ListByJob(ctx, s.db, jobID)
	if err != nil {
		return nil, err
	}
	out := make([]auditdomain.JobLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) Purge(ctx context.Context, tx *gorm.DB, jobID snowflake.ID) error {
	if tx == nil {
		tx = s.db
	}
	removed, err := s.repo.DeleteByJob(ctx, tx, jobID)
	if err != nil {
		return err
	}
	s.log.Debug("purged job log", zap.Int64("job_id", jobID.Int64()), zap.Int64("entries", removed))
	return nil
}

func validAction(action auditdomain.Action) bool {
	switch action {
	case auditdomain.ActionCreated,
		auditdomain.ActionEdited,
		auditdomain.ActionStageChange,
		auditdomain.ActionDeleted,
		auditdomain.ActionChangeRequest:
		return true
	default:
		return false
	}
}

func normalize(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

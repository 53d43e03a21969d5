package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/intake/domain"
	jobdomain "github.com/crowngraphics/portal/internal/job/domain"
	"github.com/crowngraphics/portal/internal/observability/metrics"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Jobs     jobdomain.Service
	Renderer domain.Renderer
	Notifier domain.Notifier
	Files    domain.FileStore
	Links    domain.LinkIssuer `optional:"true"`
	Metrics  *metrics.Metrics  `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	jobs     jobdomain.Service
	renderer domain.Renderer
	notifier domain.Notifier
	files    domain.FileStore
	links    domain.LinkIssuer
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("intake.service"),
		clock:    p.Clock,
		jobs:     p.Jobs,
		renderer: p.Renderer,
		notifier: p.Notifier,
		files:    p.Files,
		links:    p.Links,
		metrics:  p.Metrics,
	}
}

func (s *Service) Ingest(ctx context.Context, sub domain.Submission, uploads []domain.Upload) (domain.Result, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return domain.Result{}, err
	}
	if sub.OrderID == "" {
		sub.OrderID = ulid.Make().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.clock.Now().UTC()
	}
	log := s.log.With(
		zap.String("order_id", sub.OrderID),
		zap.String("order_type", string(sub.OrderType)),
	)

	// Rendered before anything is stored: a failure here leaves no job behind,
	// so a retry with the same order id still gets its emails.
	pdf, err := s.renderer.RenderOrder(ctx, sub.Summary(), sub.Items)
	if err != nil {
		s.metrics.RecordIntakeFailure(ctx, string(sub.OrderType), err)
		log.Error("failed to render order pdf", zap.Error(err))
		return domain.Result{}, fmt.Errorf("render order pdf: %w", err)
	}

	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		s.removeUploads(ctx, stored)
		s.metrics.RecordIntakeFailure(ctx, string(sub.OrderType), err)
		return domain.Result{}, err
	}
	sub.UploadedPaths = append(sub.UploadedPaths, stored...)

	job := sub.ToJob()
	payload, err := json.Marshal(sub)
	if err != nil {
		s.removeUploads(ctx, stored)
		return domain.Result{}, fmt.Errorf("encode submission: %w", err)
	}
	job.SubmissionJSON = datatypes.JSON(payload)
	if err := job.SetUploadedFilePaths(sub.UploadedPaths); err != nil {
		s.removeUploads(ctx, stored)
		return domain.Result{}, fmt.Errorf("encode uploads: %w", err)
	}

	ingested, err := s.jobs.Ingest(ctx, jobdomain.IngestRequest{
		Job:       job,
		LineItems: sub.LineItems(),
	})
	if err != nil {
		s.removeUploads(ctx, stored)
		s.metrics.RecordIntakeFailure(ctx, string(sub.OrderType), err)
		log.Error("failed to store intake order", zap.Error(err))
		return domain.Result{}, err
	}

	result := domain.Result{
		OrderID: sub.OrderID,
		JobID:   ingested.Job.ID,
		Deduped: ingested.Deduped,
	}
	if ingested.Deduped {
		// The first submission already kept its own copies.
		s.removeUploads(ctx, stored)
		s.metrics.RecordIntakeDedup(ctx, string(sub.OrderType))
		log.Info("duplicate intake submission ignored", zap.Int64("job_id", result.JobID.Int64()))
		return s.withChangeToken(result, log), nil
	}
	s.metrics.RecordIntakeSubmission(ctx, string(sub.OrderType))

	err = s.notifier.Notify(ctx, domain.Notification{
		Order:         sub.Summary(),
		Items:         sub.Items,
		PDF:           pdf,
		UploadedPaths: sub.UploadedPaths,
	})
	if err != nil {
		failed := domain.FailedEmail(err)
		msg := err.Error()
		result.EmailError = &msg
		// The shop already has the order when only the confirmation bounced.
		result.EmailSent = failed == domain.EmailCustomer
		s.metrics.RecordEmailFailure(ctx, failed)
		log.Warn("order email failed", zap.String("email", failed), zap.Error(err))
	} else {
		result.EmailSent = true
	}

	return s.withChangeToken(result, log), nil
}

func (s *Service) withChangeToken(result domain.Result, log *zap.Logger) domain.Result {
	if s.links == nil {
		return result
	}
	token, err := s.links.Issue(result.JobID, result.OrderID)
	if err != nil {
		log.Warn("failed to issue change link", zap.Error(err))
		return result
	}
	result.ChangeToken = token
	return result
}

func (s *Service) storeUploads(ctx context.Context, uploads []domain.Upload) ([]string, error) {
	var paths []string
	for _, upload := range uploads {
		if upload.Content == nil || upload.Filename == "" {
			continue
		}
		path, err := s.files.Save(ctx, upload.Filename, upload.Content)
		if errors.Is(err, domain.ErrFileNotAllowed) {
			s.log.Debug("skipping upload", zap.String("filename", upload.Filename))
			continue
		}
		if err != nil {
			return paths, fmt.Errorf("store upload %q: %w", upload.Filename, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *Service) removeUploads(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := s.files.Remove(ctx, path); err != nil {
			s.log.Warn("failed to remove upload", zap.String("path", path), zap.Error(err))
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/crowngraphics/portal/internal/audit/domain"
	"github.com/crowngraphics/portal/internal/authctx"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/job/domain"
	"github.com/crowngraphics/portal/internal/observability/metrics"
	"github.com/crowngraphics/portal/internal/ponumber"
	"github.com/crowngraphics/portal/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errDeduped = errors.New("intake order already stored")

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("job.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, fields domain.Fields) (domain.Job, error) {
	var job domain.Job
	if err := fields.Apply(&job); err != nil {
		return domain.Job{}, err
	}

	received, err := domain.ParseDate(fields.ReceivedDate)
	if err != nil {
		return domain.Job{}, err
	}
	if received == nil {
		today := clock.Today(s.clock)
		received = &today
	}

	now := s.clock.Now().UTC()
	job.ID = s.genID.Generate()
	job.ReceivedDate = *received
	job.Stage = domain.StageReceived
	job.IsNew = true
	job.Source = domain.OptionalString(domain.SourceManual)
	job.CreatedAt = now
	job.UpdatedAt = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key, seq, err := ponumber.Next(ctx, tx, job.ReceivedDate)
		if err != nil {
			return err
		}
		job.PODateKey, job.POSeq = key, seq

		if err := s.repo.Insert(ctx, tx, &job); err != nil {
			return err
		}
		if fields.LineItems != nil {
			if _, err := s.replaceLineItems(ctx, tx, &job, *fields.LineItems); err != nil {
				return err
			}
			if err := s.repo.Save(ctx, tx, &job); err != nil {
				return err
			}
		}

		return s.audit.Record(ctx, tx, auditdomain.Entry{
			JobID:   job.ID,
			Action:  auditdomain.ActionCreated,
			Details: "Created job " + job.DisplayName(),
		})
	})
	if err != nil {
		return domain.Job{}, err
	}

	s.log.Info("job created",
		zap.Int64("job_id", job.ID.Int64()),
		zap.String("po", job.PODisplay()),
	)
	return job, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, fields domain.Fields) (domain.Job, error) {
	if id == 0 {
		return domain.Job{}, domain.ErrInvalidID
	}
	received, err := domain.ParseDate(fields.ReceivedDate)
	if err != nil {
		return domain.Job{}, err
	}

	var job domain.Job
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		before := *current
		job = *current

		if err := fields.Apply(&job); err != nil {
			return err
		}
		if received != nil {
			job.ReceivedDate = *received
		}
		if !sameDay(job.ReceivedDate, before.ReceivedDate) {
			key, seq, err := ponumber.Next(ctx, tx, job.ReceivedDate)
			if err != nil {
				return err
			}
			job.PODateKey, job.POSeq = key, seq
		}

		if fields.LineItems != nil {
			if _, err := s.replaceLineItems(ctx, tx, &job, *fields.LineItems); err != nil {
				return err
			}
		}

		job.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Save(ctx, tx, &job); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, auditdomain.Entry{
			JobID:   job.ID,
			Action:  auditdomain.ActionEdited,
			Details: editSummary(before, job),
		})
	})
	if err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

func (s *Service) AdvanceStage(ctx context.Context, id snowflake.ID, stage string) (domain.StageChange, error) {
	if id == 0 {
		return domain.StageChange{}, domain.ErrInvalidID
	}
	to, err := domain.ParseStage(stage)
	if err != nil {
		return domain.StageChange{}, err
	}

	var change domain.StageChange
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}

		from := job.Stage
		job.Stage = to
		job.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.UpdateStage(ctx, tx, job); err != nil {
			return err
		}

		change = domain.StageChange{
			Job:       *job,
			From:      from,
			To:        to,
			Completed: to.IsTerminal(),
		}
		return s.audit.Record(ctx, tx, auditdomain.Entry{
			JobID:   job.ID,
			Action:  auditdomain.ActionStageChange,
			Details: fmt.Sprintf("Stage changed: %s → %s", from, to),
		})
	})
	if err != nil {
		return domain.StageChange{}, err
	}

	s.metrics.RecordStageChange(ctx, string(to))
	return change, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	identity, ok := authctx.FromContext(ctx)
	if !ok || !identity.IsAdmin() {
		return domain.ErrForbidden
	}
	if id == 0 {
		return domain.ErrInvalidID
	}

	var display string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		display = job.DisplayName()

		if err := s.audit.Record(ctx, tx, auditdomain.Entry{
			JobID:   job.ID,
			Action:  auditdomain.ActionDeleted,
			Details: "Job deleted: " + display,
		}); err != nil {
			return err
		}
		if err := s.audit.Purge(ctx, tx, job.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteLineItems(ctx, tx, job.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, job.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("job deleted",
		zap.Int64("job_id", id.Int64()),
		zap.String("job", display),
		zap.String("actor", identity.Username),
	)
	return nil
}

func (s *Service) ReplaceLineItems(ctx context.Context, id snowflake.ID, rows []domain.LineItemInput) (domain.Job, error) {
	if id == 0 {
		return domain.Job{}, domain.ErrInvalidID
	}

	var job domain.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		job = *current

		items, err := s.replaceLineItems(ctx, tx, &job, rows)
		if err != nil {
			return err
		}
		job.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Save(ctx, tx, &job); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, auditdomain.Entry{
			JobID:   job.ID,
			Action:  auditdomain.ActionEdited,
			Details: fmt.Sprintf("Edited job. Line items replaced (%d).", len(items)),
		})
	})
	if err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

// replaceLineItems swaps the job's rows and fills unset totals on job.
// The caller persists job.
func (s *Service) replaceLineItems(ctx context.Context, tx *gorm.DB, job *domain.Job, rows []domain.LineItemInput) ([]domain.LineItem, error) {
	if err := s.repo.DeleteLineItems(ctx, tx, job.ID); err != nil {
		return nil, err
	}

	items := domain.BuildLineItems(rows)
	for i := range items {
		items[i].ID = s.genID.Generate()
		items[i].JobID = job.ID
	}
	if err := s.repo.InsertLineItems(ctx, tx, items); err != nil {
		return nil, err
	}

	*job = domain.DeriveTotals(*job, items)
	return items, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Detail, error) {
	if id == 0 {
		return domain.Detail{}, domain.ErrInvalidID
	}
	job, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Detail{}, err
	}
	if job == nil {
		return domain.Detail{}, domain.ErrNotFound
	}

	rows, err := s.repo.ListLineItems(ctx, s.db, id)
	if err != nil {
		return domain.Detail{}, err
	}
	items := make([]domain.LineItem, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		items = append(items, *row)
	}

	return domain.Detail{
		Job:         *job,
		LineItems:   items,
		PODisplay:   job.PODisplay(),
		DisplayName: job.DisplayName(),
		Progress:    domain.Progress(job.Stage),
	}, nil
}

func (s *Service) MarkViewed(ctx context.Context, id snowflake.ID) (bool, error) {
	if id == 0 {
		return false, domain.ErrInvalidID
	}
	return s.repo.ClearNew(ctx, s.db, id)
}

func (s *Service) ListActive(ctx context.Context, page pagination.Page) (domain.ListResponse, error) {
	return s.list(ctx, domain.ListFilter{Completed: false}, page)
}

func (s *Service) ListCompleted(ctx context.Context, page pagination.Page) (domain.ListResponse, error) {
	return s.list(ctx, domain.ListFilter{Completed: true}, page)
}

func (s *Service) list(ctx context.Context, filter domain.ListFilter, page pagination.Page) (domain.ListResponse, error) {
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	jobs := make([]domain.Summary, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		jobs = append(jobs, domain.NewSummary(*row))
	}

	return domain.ListResponse{
		PageInfo: pagination.BuildPageInfo(page, total),
		Jobs:     jobs,
	}, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	jobs := make([]domain.Job, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		jobs = append(jobs, *row)
	}
	return jobs, nil
}

func (s *Service) Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	job := req.Job
	if job.IntakeOrderID == nil || strings.TrimSpace(*job.IntakeOrderID) == "" {
		return domain.IngestResult{}, domain.ErrInvalidIntakeOrder
	}
	if strings.TrimSpace(job.CustomerName) == "" {
		return domain.IngestResult{}, domain.ErrInvalidCustomerName
	}
	if strings.TrimSpace(job.JobTitle) == "" {
		return domain.IngestResult{}, domain.ErrInvalidTitle
	}
	orderID := strings.TrimSpace(*job.IntakeOrderID)
	job.IntakeOrderID = &orderID

	if job.ReceivedDate.IsZero() {
		job.ReceivedDate = clock.Today(s.clock)
	}
	now := s.clock.Now().UTC()
	job.ID = s.genID.Generate()
	job.Stage = domain.StageReceived
	job.IsNew = true
	job.Source = domain.OptionalString(domain.SourceWebsite)
	job.CreatedAt = now
	job.UpdatedAt = now

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key, seq, err := ponumber.Next(ctx, tx, job.ReceivedDate)
		if err != nil {
			return err
		}
		job.PODateKey, job.POSeq = key, seq

		inserted, err := s.repo.InsertIfAbsent(ctx, tx, &job)
		if err != nil {
			return err
		}
		if !inserted {
			return errDeduped
		}

		items := make([]domain.LineItem, len(req.LineItems))
		copy(items, req.LineItems)
		for i := range items {
			items[i].ID = s.genID.Generate()
			items[i].JobID = job.ID
			items[i].Position = i
		}
		if err := s.repo.InsertLineItems(ctx, tx, items); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, auditdomain.Entry{
			JobID:   job.ID,
			Action:  auditdomain.ActionCreated,
			Details: fmt.Sprintf("Created job %s from website order %s", job.DisplayName(), orderID),
			Actor:   auditdomain.ActorWebsite,
		})
	})

	switch {
	case errors.Is(err, errDeduped):
		existing, findErr := s.repo.FindByIntakeOrderID(ctx, s.db, orderID)
		if findErr != nil {
			return domain.IngestResult{}, findErr
		}
		if existing == nil {
			return domain.IngestResult{}, fmt.Errorf("intake order %s: %w", orderID, domain.ErrNotFound)
		}
		s.log.Info("intake order deduplicated",
			zap.String("order_id", orderID),
			zap.Int64("job_id", existing.ID.Int64()),
		)
		return domain.IngestResult{Job: *existing, Deduped: true}, nil
	case err != nil:
		return domain.IngestResult{}, err
	}

	s.log.Info("intake order stored",
		zap.String("order_id", orderID),
		zap.Int64("job_id", job.ID.Int64()),
		zap.String("po", job.PODisplay()),
	)
	return domain.IngestResult{Job: job}, nil
}

func (s *Service) RecordChangeRequest(ctx context.Context, id snowflake.ID, intakeOrderID, notes string) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return domain.ErrInvalidChangeNotes
	}
	job, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if job == nil || job.IntakeOrderID == nil || *job.IntakeOrderID != intakeOrderID {
		return domain.ErrNotFound
	}

	return s.audit.Record(ctx, s.db, auditdomain.Entry{
		JobID:   job.ID,
		Action:  auditdomain.ActionChangeRequest,
		Details: "Change requested: " + notes,
		Actor:   auditdomain.ActorWebsite,
	})
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// editSummary describes an edit for the job log.
func editSummary(before, after domain.Job) string {
	if beforePO, afterPO := before.PODisplay(), after.PODisplay(); beforePO != afterPO {
		return fmt.Sprintf("Edited job. PO %s → %s", beforePO, afterPO)
	}
	changed := changedFields(before, after)
	if len(changed) == 0 {
		return "Edited job."
	}
	return "Edited job. Changed: " + strings.Join(changed, ", ")
}

func changedFields(before, after domain.Job) []string {
	tracked := []struct {
		name      string
		old, next string
	}{
		{"customer_name", before.CustomerName, after.CustomerName},
		{"business_name", str(before.BusinessName), str(after.BusinessName)},
		{"job_title", before.JobTitle, after.JobTitle},
		{"job_summary", str(before.JobSummary), str(after.JobSummary)},
		{"email_address", str(before.EmailAddress), str(after.EmailAddress)},
		{"phone_number", str(before.PhoneNumber), str(after.PhoneNumber)},
		{"needed_by_date", day(before.NeededByDate), day(after.NeededByDate)},
		{"scheduled_date", day(before.ScheduledDate), day(after.ScheduledDate)},
		{"completed_date", day(before.CompletedDate), day(after.CompletedDate)},
		{"quote_amount", money(before.QuoteAmount), money(after.QuoteAmount)},
		{"materials_total", money(before.MaterialsTotal), money(after.MaterialsTotal)},
		{"labor_total", money(before.LaborTotal), money(after.LaborTotal)},
		{"sales_tax", money(before.SalesTax), money(after.SalesTax)},
		{"grand_total", money(before.GrandTotal), money(after.GrandTotal)},
	}
	var changed []string
	for _, field := range tracked {
		if field.old != field.next {
			changed = append(changed, field.name)
		}
	}
	return changed
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func day(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/pkg/db/pagination"
)

// Detail is a job with everything the job view shows.
type Detail struct {
	Job         Job        `json:"job"`
	LineItems   []LineItem `json:"line_items"`
	PODisplay   string     `json:"po_display"`
	DisplayName string     `json:"display_name"`
	Progress    int        `json:"progress"`
}

type ListResponse struct {
	pagination.PageInfo
	Jobs []Summary `json:"jobs"`
}

// Summary is a job row in list views.
type Summary struct {
	ID           snowflake.ID `json:"id"`
	PODisplay    string       `json:"po_display"`
	DisplayName  string       `json:"display_name"`
	CustomerName string       `json:"customer_name"`
	BusinessName *string      `json:"business_name,omitempty"`
	Stage        Stage        `json:"stage"`
	Progress     int          `json:"progress"`
	IsNew        bool         `json:"is_new"`
	Source       *string      `json:"source,omitempty"`
	ReceivedDate string       `json:"received_date"`
	NeededByDate string       `json:"needed_by_date,omitempty"`
	GrandTotal   *float64     `json:"grand_total,omitempty"`
}

func NewSummary(job Job) Summary {
	s := Summary{
		ID:           job.ID,
		PODisplay:    job.PODisplay(),
		DisplayName:  job.DisplayName(),
		CustomerName: job.CustomerName,
		BusinessName: job.BusinessName,
		Stage:        job.Stage,
		Progress:     Progress(job.Stage),
		IsNew:        job.IsNew,
		Source:       job.Source,
		GrandTotal:   job.GrandTotal,
	}
	if !job.ReceivedDate.IsZero() {
		s.ReceivedDate = FormatDate(job.ReceivedDate)
	}
	if job.NeededByDate != nil {
		s.NeededByDate = FormatDate(*job.NeededByDate)
	}
	return s
}

// StageChange reports the outcome of AdvanceStage.
type StageChange struct {
	Job       Job   `json:"job"`
	From      Stage `json:"from"`
	To        Stage `json:"to"`
	Completed bool  `json:"completed"`
}

// IngestRequest is a job built from a website submission. PO, stage and
// identity are assigned by the service.
type IngestRequest struct {
	Job       Job
	LineItems []LineItem
}

type IngestResult struct {
	Job     Job
	Deduped bool
}

type Service interface {
	Create(ctx context.Context, fields Fields) (Job, error)
	Update(ctx context.Context, id snowflake.ID, fields Fields) (Job, error)
	AdvanceStage(ctx context.Context, id snowflake.ID, stage string) (StageChange, error)
	Delete(ctx context.Context, id snowflake.ID) error
	ReplaceLineItems(ctx context.Context, id snowflake.ID, rows []LineItemInput) (Job, error)

	Get(ctx context.Context, id snowflake.ID) (Detail, error)
	// MarkViewed clears is_new. It reports whether the flag was set.
	MarkViewed(ctx context.Context, id snowflake.ID) (bool, error)
	ListActive(ctx context.Context, page pagination.Page) (ListResponse, error)
	ListCompleted(ctx context.Context, page pagination.Page) (ListResponse, error)
	ListAll(ctx context.Context) ([]Job, error)

	// Ingest stores a website order once per intake order id.
	Ingest(ctx context.Context, req IngestRequest) (IngestResult, error)
	RecordChangeRequest(ctx context.Context, id snowflake.ID, intakeOrderID, notes string) error
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidCustomerName = errors.New("invalid_customer_name")
	ErrInvalidTitle        = errors.New("invalid_job_title")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidStage        = errors.New("invalid_stage")
	ErrInvalidIntakeOrder  = errors.New("invalid_intake_order_id")
	ErrInvalidChangeNotes  = errors.New("invalid_change_notes")
	ErrNotFound            = errors.New("not_found")
	ErrForbidden           = errors.New("forbidden")
)

package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/crowngraphics/portal/internal/audit/domain"
	auditrepository "github.com/crowngraphics/portal/internal/audit/repository"
	auditservice "github.com/crowngraphics/portal/internal/audit/service"
	"github.com/crowngraphics/portal/internal/authctx"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/job/domain"
	"github.com/crowngraphics/portal/internal/job/repository"
	"github.com/crowngraphics/portal/pkg/db"
	"github.com/crowngraphics/portal/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	clock *clock.FakeClock
	svc   domain.Service
	audit auditdomain.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Job{}, &domain.LineItem{}, &auditdomain.JobLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC))

	audit := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  auditrepository.Provide(),
	})
	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
		Audit: audit,
	})
	return fixture{db: conn, clock: clk, svc: svc, audit: audit}
}

func staffCtx() context.Context {
	return authctx.WithIdentity(context.Background(), authctx.Identity{UserID: 2, Username: "sam", Role: authctx.RoleStaff})
}

func adminCtx() context.Context {
	return authctx.WithIdentity(context.Background(), authctx.Identity{UserID: 1, Username: "admin", Role: authctx.RoleAdmin})
}

func count(t *testing.T, conn *gorm.DB, table string, jobID snowflake.ID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Table(table).Where("job_id = ?", jobID).Count(&n).Error)
	return n
}

func TestCreate_AssignsPOAndLogs(t *testing.T) {
	f := setup(t)
	ctx := staffCtx()

	first, err := f.svc.Create(ctx, domain.Fields{CustomerName: "Ann", JobTitle: "Banner"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, domain.Fields{CustomerName: "Bo", JobTitle: "Decals"})
	require.NoError(t, err)

	assert.Equal(t, "030926-01", first.PODisplay())
	assert.Equal(t, "030926-02", second.PODisplay())
	assert.Equal(t, domain.StageReceived, first.Stage)
	assert.True(t, first.IsNew)
	require.NotNil(t, first.Source)
	assert.Equal(t, domain.SourceManual, *first.Source)

	logs, err := f.audit.List(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, auditdomain.ActionCreated, logs[0].Action)
	assert.Equal(t, "Created job Banner • 03-09-2026 • 030926-01", *logs[0].Details)
	assert.Equal(t, "sam", *logs[0].ActorUsername)
}

func TestCreate_ValidationLeavesNoRows(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(staffCtx(), domain.Fields{JobTitle: "Banner"})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomerName)
	_, err = f.svc.Create(staffCtx(), domain.Fields{CustomerName: "Ann", JobTitle: "Banner", ReceivedDate: "2026-03-09"})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	var n int64
	require.NoError(t, f.db.Model(&domain.Job{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreate_WithLineItemsDerivesTotals(t *testing.T) {
	f := setup(t)
	rows := []domain.LineItemInput{{Qty: "1", Description: "Vinyl", MaterialPrice: "40", LaborPrice: "60"}}

	job, err := f.svc.Create(staffCtx(), domain.Fields{
		CustomerName: "Ann",
		JobTitle:     "Banner",
		TaxRate:      "10",
		LineItems:    &rows,
	})
	require.NoError(t, err)
	assert.Equal(t, 110.0, *job.GrandTotal)

	detail, err := f.svc.Get(staffCtx(), job.ID)
	require.NoError(t, err)
	require.Len(t, detail.LineItems, 1)
	assert.Equal(t, 100.0, detail.LineItems[0].LineTotal)
	assert.Equal(t, 10.0, *detail.Job.SalesTax)
}

func TestUpdate_ReceivedDateReassignsPO(t *testing.T) {
	f := setup(t)
	ctx := staffCtx()

	job, err := f.svc.Create(ctx, domain.Fields{CustomerName: "Ann", JobTitle: "Banner"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, domain.Fields{CustomerName: "Bo", JobTitle: "Sign", ReceivedDate: "03-10-2026"})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, job.ID, domain.Fields{CustomerName: "Ann", JobTitle: "Banner", ReceivedDate: "03-10-2026"})
	require.NoError(t, err)
	assert.Equal(t, "031026", updated.PODateKey)
	assert.Equal(t, 2, updated.POSeq)

	stored, err := f.svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "031026-02", stored.PODisplay)

	logs, err := f.audit.List(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Edited job. PO 030926-01 → 031026-02", *logs[0].Details)
}

func TestUpdate_BlankReceivedDateKeepsPO(t *testing.T) {
	f := setup(t)
	ctx := staffCtx()

	job, err := f.svc.Create(ctx, domain.Fields{CustomerName: "Ann", JobTitle: "Banner"})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, job.ID, domain.Fields{CustomerName: "Ann", JobTitle: "Banner v2"})
	require.NoError(t, err)
	assert.Equal(t, job.PODisplay(), updated.PODisplay())

	logs, err := f.audit.List(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited job. Changed: job_title", *logs[0].Details)

	_, err = f.svc.Update(ctx, job.ID, domain.Fields{CustomerName: "Ann"})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)
	_, err = f.svc.Update(ctx, 12345, domain.Fields{CustomerName: "Ann", JobTitle: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplaceLineItems_EmptySetRemovesAll(t *testing.T) {
	f := setup(t)
	ctx := staffCtx()

	job, err := f.svc.Create(ctx, domain.Fields{CustomerName: "Ann", JobTitle: "Banner"})
	require.NoError(t, err)

	_, err = f.svc.ReplaceLineItems(ctx, job.ID, []domain.LineItemInput{
		{Description: "Vinyl", MaterialPrice: "12"},
		{Description: "Install", LaborPrice: "30"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count(t, f.db, "job_line_items", job.ID))

	_, err = f.svc.ReplaceLineItems(ctx, job.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, count(t, f.db, "job_line_items", job.ID))
}

func TestAdvanceStage_MovesBetweenLists(t *testing.T) {
	f := setup(t)
	ctx := staffCtx()

	job, err := f.svc.Create(ctx, domain.Fields{CustomerName: "Ann", JobTitle: "Banner", QuoteAmount: "250"})
	require.NoError(t, err)

	active, err := f.svc.ListActive(ctx, pagination.Page{})
	require.NoError(t, err)
	require.Len(t, active.Jobs, 1)
	assert.Equal(t, pagination.DefaultPerPage, active.PerPage)

	_, err = f.svc.AdvanceStage(ctx, job.ID, "Shipped")
	assert.ErrorIs(t, err, domain.ErrInvalidStage)

	change, err := f.svc.AdvanceStage(ctx, job.ID, string(domain.StageCompleted))
	require.NoError(t, err)
	assert.True(t, change.Completed)
	assert.Equal(t, domain.StageReceived, change.From)

	active, err = f.svc.ListActive(ctx, pagination.Page{})
	require.NoError(t, err)
	assert.Empty(t, active.Jobs)

	completed, err := f.svc.ListCompleted(ctx, pagination.Page{})
	require.NoError(t, err)
	require.Len(t, completed.Jobs, 1)
	assert.Equal(t, 100, completed.Jobs[0].Progress)

	detail, err := f.svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.PODisplay(), detail.PODisplay)
	assert.Equal(t, 250.0, *detail.Job.QuoteAmount)
	assert.Equal(t, job.CustomerName, detail.Job.CustomerName)

	logs, err := f.audit.List(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stage changed: Received → Completed", *logs[0].Details)

	// Moving back out of Completed is allowed.
	change, err = f.svc.AdvanceStage(ctx, job.ID, string(domain.StageDesign))
	require.NoError(t, err)
	assert.False(t, change.Completed)
}

func TestListActive_OrdersByReceivedDate(t *testing.T) {
	f := setup(t)
	ctx := staffCtx()

	for _, received := range []string{"03-01-2026", "03-05-2026", "02-20-2026"} {
		_, err := f.svc.Create(ctx, domain.Fields{CustomerName: "Ann", JobTitle: "Job " + received, ReceivedDate: received})
		require.NoError(t, err)
	}

	list, err := f.svc.ListActive(ctx, pagination.Page{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, 6, list.PerPage)
	require.Len(t, list.Jobs, 3)
	assert.Equal(t, "03-05-2026", list.Jobs[0].ReceivedDate)
	assert.Equal(t, "02-20-2026", list.Jobs[2].ReceivedDate)
}

func TestDelete_RemovesLineItemsAndLogs(t *testing.T) {
	f := setup(t)

	job, err := f.svc.Create(staffCtx(), domain.Fields{CustomerName: "Ann", JobTitle: "Banner"})
	require.NoError(t, err)
	_, err = f.svc.ReplaceLineItems(staffCtx(), job.ID, []domain.LineItemInput{{Description: "Vinyl"}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(staffCtx(), job.ID), domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), job.ID), domain.ErrForbidden)

	require.NoError(t, f.svc.Delete(adminCtx(), job.ID))
	assert.Zero(t, count(t, f.db, "job_line_items", job.ID))
	assert.Zero(t, count(t, f.db, "job_logs", job.ID))

	_, err = f.svc.Get(adminCtx(), job.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(adminCtx(), job.ID), domain.ErrNotFound)
}

func TestMarkViewed(t *testing.T) {
	f := setup(t)

	job, err := f.svc.Create(staffCtx(), domain.Fields{CustomerName: "Ann", JobTitle: "Banner"})
	require.NoError(t, err)

	changed, err := f.svc.MarkViewed(staffCtx(), job.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.svc.MarkViewed(staffCtx(), job.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	detail, err := f.svc.Get(staffCtx(), job.ID)
	require.NoError(t, err)
	assert.False(t, detail.Job.IsNew)
}

func websiteJob(orderID string) domain.IngestRequest {
	return domain.IngestRequest{
		Job: domain.Job{
			CustomerName:  "Ann",
			JobTitle:      "Website order (quick)",
			IntakeOrderID: &orderID,
		},
		LineItems: []domain.LineItem{{Description: domain.OptionalString("Flyers")}},
	}
}

func TestIngest_DedupsOnIntakeOrderID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Ingest(ctx, websiteJob("ORD-1"))
	require.NoError(t, err)
	assert.False(t, first.Deduped)
	assert.Equal(t, "030926-01", first.Job.PODisplay())

	second, err := f.svc.Ingest(ctx, websiteJob("ORD-1"))
	require.NoError(t, err)
	assert.True(t, second.Deduped)
	assert.Equal(t, first.Job.ID, second.Job.ID)

	var n int64
	require.NoError(t, f.db.Model(&domain.Job{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), count(t, f.db, "job_line_items", first.Job.ID))

	logs, err := f.audit.List(ctx, first.Job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, auditdomain.ActorWebsite, *logs[0].ActorUsername)

	_, err = f.svc.Ingest(ctx, domain.IngestRequest{Job: domain.Job{CustomerName: "Ann", JobTitle: "X"}})
	assert.ErrorIs(t, err, domain.ErrInvalidIntakeOrder)
}

func TestRecordChangeRequest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.Ingest(ctx, websiteJob("ORD-9"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.RecordChangeRequest(ctx, res.Job.ID, "ORD-9", " "), domain.ErrInvalidChangeNotes)
	assert.ErrorIs(t, f.svc.RecordChangeRequest(ctx, res.Job.ID, "ORD-8", "bigger"), domain.ErrNotFound)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.RecordChangeRequest(ctx, res.Job.ID, "ORD-9", "Make it blue"))

	logs, err := f.audit.List(ctx, res.Job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, auditdomain.ActionChangeRequest, logs[0].Action)
	assert.Equal(t, "Change requested: Make it blue", *logs[0].Details)
}

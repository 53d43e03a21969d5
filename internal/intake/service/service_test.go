package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/crowngraphics/portal/internal/audit/domain"
	auditrepository "github.com/crowngraphics/portal/internal/audit/repository"
	auditservice "github.com/crowngraphics/portal/internal/audit/service"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/intake/domain"
	"github.com/crowngraphics/portal/internal/intake/mocks"
	jobdomain "github.com/crowngraphics/portal/internal/job/domain"
	jobrepository "github.com/crowngraphics/portal/internal/job/repository"
	jobservice "github.com/crowngraphics/portal/internal/job/service"
	"github.com/crowngraphics/portal/pkg/db"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	jobs     jobdomain.Service
	renderer *mocks.MockRenderer
	notifier *mocks.MockNotifier
	files    *mocks.MockFileStore
	links    *mocks.MockLinkIssuer
	svc      domain.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&jobdomain.Job{}, &jobdomain.LineItem{}, &auditdomain.JobLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC))

	audit := auditservice.NewService(auditservice.Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: auditrepository.Provide(),
	})
	jobs := jobservice.New(jobservice.Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: jobrepository.Provide(), Audit: audit,
	})

	f := fixture{
		db:       conn,
		jobs:     jobs,
		renderer: mocks.NewMockRenderer(ctrl),
		notifier: mocks.NewMockNotifier(ctrl),
		files:    mocks.NewMockFileStore(ctrl),
		links:    mocks.NewMockLinkIssuer(ctrl),
	}
	f.svc = New(Params{
		Log:      zap.NewNop(),
		Clock:    clk,
		Jobs:     jobs,
		Renderer: f.renderer,
		Notifier: f.notifier,
		Files:    f.files,
		Links:    f.links,
	})
	return f
}

func quickSubmission(orderID string) domain.Submission {
	return domain.Submission{
		OrderType: domain.OrderTypeQuick,
		OrderID:   orderID,
		Contact:   domain.Contact{Name: "Ann Lee", Email: "ann@example.com", Phone: "555-0100"},
		Quick:     &domain.QuickOrderFields{RequestedItem: "Business cards", NeededBy: "2026-03-20"},
		Items: []domain.ItemRow{
			{Qty: "500", Description: "Business cards", Material: "16pt", Notes: "rounded corners"},
		},
	}
}

func countJobs(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&jobdomain.Job{}).Count(&n).Error)
	return n
}

func TestIngest_StoresJobAndNotifiesOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.files.EXPECT().Save(gomock.Any(), "proof.pdf", gomock.Any()).Return("uploads/orders/20260309_abc_proof.pdf", nil).Times(1)
	f.files.EXPECT().Save(gomock.Any(), "proof.pdf", gomock.Any()).Return("uploads/orders/20260309_def_proof.pdf", nil).Times(1)
	f.files.EXPECT().Remove(gomock.Any(), "uploads/orders/20260309_def_proof.pdf").Return(nil).Times(1)
	f.renderer.EXPECT().RenderOrder(gomock.Any(), gomock.Any(), gomock.Len(1)).Return([]byte("%PDF"), nil).Times(2)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n domain.Notification) error {
		assert.Equal(t, "ORD-100", n.Order.OrderID)
		assert.Equal(t, []byte("%PDF"), n.PDF)
		assert.Equal(t, []string{"uploads/orders/20260309_abc_proof.pdf"}, n.UploadedPaths)
		return nil
	}).Times(1)
	f.links.EXPECT().Issue(gomock.Any(), "ORD-100").Return("signed", nil).Times(2)

	uploads := func() []domain.Upload {
		return []domain.Upload{{Filename: "proof.pdf", Content: strings.NewReader("pdf")}}
	}

	first, err := f.svc.Ingest(ctx, quickSubmission("ORD-100"), uploads())
	require.NoError(t, err)
	assert.False(t, first.Deduped)
	assert.True(t, first.EmailSent)
	assert.Nil(t, first.EmailError)
	assert.Equal(t, "signed", first.ChangeToken)

	second, err := f.svc.Ingest(ctx, quickSubmission("ORD-100"), uploads())
	require.NoError(t, err)
	assert.True(t, second.Deduped)
	assert.False(t, second.EmailSent)
	assert.Equal(t, first.JobID, second.JobID)
	assert.Equal(t, int64(1), countJobs(t, f.db))

	detail, err := f.jobs.Get(ctx, first.JobID)
	require.NoError(t, err)
	assert.Equal(t, "Website quick order: Business cards", detail.Job.JobTitle)
	assert.Contains(t, *detail.Job.JobDetails, "Requested item: Business cards")
	require.NotNil(t, detail.Job.NeededByDate)
	assert.Equal(t, 20, detail.Job.NeededByDate.Day())
	require.Len(t, detail.LineItems, 1)
	assert.Equal(t, 500, *detail.LineItems[0].Qty)

	submission, err := detail.Job.Submission()
	require.NoError(t, err)
	assert.Equal(t, "ORD-100", submission["order_id"])
	paths, err := detail.Job.UploadedFilePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/orders/20260309_abc_proof.pdf"}, paths)
}

func TestIngest_EmailFailureIsSoft(t *testing.T) {
	f := setup(t)

	f.renderer.EXPECT().RenderOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("%PDF"), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("smtp: connection refused"))
	f.links.EXPECT().Issue(gomock.Any(), gomock.Any()).Return("signed", nil)

	res, err := f.svc.Ingest(context.Background(), quickSubmission("ORD-200"), nil)
	require.NoError(t, err)
	assert.False(t, res.EmailSent)
	require.NotNil(t, res.EmailError)
	assert.Contains(t, *res.EmailError, "connection refused")
	assert.Equal(t, int64(1), countJobs(t, f.db))
}

func TestIngest_CustomerEmailFailureKeepsShopNotification(t *testing.T) {
	f := setup(t)

	f.renderer.EXPECT().RenderOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("%PDF"), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(&domain.DeliveryError{
		Email: domain.EmailCustomer,
		Err:   errors.New("550 mailbox unavailable"),
	})
	f.links.EXPECT().Issue(gomock.Any(), gomock.Any()).Return("signed", nil)

	res, err := f.svc.Ingest(context.Background(), quickSubmission("ORD-210"), nil)
	require.NoError(t, err)
	assert.True(t, res.EmailSent)
	require.NotNil(t, res.EmailError)
	assert.Equal(t, "customer email: 550 mailbox unavailable", *res.EmailError)
}

func TestIngest_RenderFailureStoresNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	gomock.InOrder(
		f.renderer.EXPECT().RenderOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("font missing")),
		f.renderer.EXPECT().RenderOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("%PDF"), nil),
	)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	f.links.EXPECT().Issue(gomock.Any(), "ORD-300").Return("signed", nil)

	_, err := f.svc.Ingest(ctx, quickSubmission("ORD-300"), []domain.Upload{
		{Filename: "proof.pdf", Content: strings.NewReader("pdf")},
	})
	require.Error(t, err)
	assert.Zero(t, countJobs(t, f.db))

	retry, err := f.svc.Ingest(ctx, quickSubmission("ORD-300"), nil)
	require.NoError(t, err)
	assert.False(t, retry.Deduped)
	assert.True(t, retry.EmailSent)
	assert.Equal(t, int64(1), countJobs(t, f.db))
}

func TestIngest_SkipsDisallowedFiles(t *testing.T) {
	f := setup(t)

	f.files.EXPECT().Save(gomock.Any(), "run.exe", gomock.Any()).Return("", domain.ErrFileNotAllowed)
	f.renderer.EXPECT().RenderOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("%PDF"), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n domain.Notification) error {
		assert.Empty(t, n.UploadedPaths)
		return nil
	})
	f.links.EXPECT().Issue(gomock.Any(), gomock.Any()).Return("signed", nil)

	res, err := f.svc.Ingest(context.Background(), quickSubmission("ORD-400"), []domain.Upload{
		{Filename: "run.exe", Content: strings.NewReader("MZ")},
	})
	require.NoError(t, err)
	assert.True(t, res.EmailSent)
}

func TestIngest_DefaultsOrderID(t *testing.T) {
	f := setup(t)

	f.renderer.EXPECT().RenderOrder(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("%PDF"), nil)
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
	f.links.EXPECT().Issue(gomock.Any(), gomock.Any()).Return("signed", nil)

	res, err := f.svc.Ingest(context.Background(), quickSubmission(""), nil)
	require.NoError(t, err)
	assert.Len(t, res.OrderID, 26)
}

func TestIngest_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub := quickSubmission("ORD-1")
	sub.OrderType = "rush"
	_, err := f.svc.Ingest(ctx, sub, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidOrderType)

	sub = quickSubmission("ORD-1")
	sub.Contact.Name = "  "
	_, err = f.svc.Ingest(ctx, sub, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	sub = quickSubmission("ORD-1")
	sub.Contact.Email = ""
	_, err = f.svc.Ingest(ctx, sub, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	assert.Zero(t, countJobs(t, f.db))
}

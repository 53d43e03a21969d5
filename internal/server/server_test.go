package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/crowngraphics/portal/internal/audit/repository"
	auditservice "github.com/crowngraphics/portal/internal/audit/service"
	authrepository "github.com/crowngraphics/portal/internal/auth/repository"
	authservice "github.com/crowngraphics/portal/internal/auth/service"
	"github.com/crowngraphics/portal/internal/auth/linktoken"
	"github.com/crowngraphics/portal/internal/auth/session"
	"github.com/crowngraphics/portal/internal/authctx"
	"github.com/crowngraphics/portal/internal/authorization"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/config"
	"github.com/crowngraphics/portal/internal/export"
	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
	jobdomain "github.com/crowngraphics/portal/internal/job/domain"
	jobrepository "github.com/crowngraphics/portal/internal/job/repository"
	jobservice "github.com/crowngraphics/portal/internal/job/service"
	"github.com/crowngraphics/portal/internal/migration"
	"github.com/crowngraphics/portal/internal/pricing"
	"github.com/crowngraphics/portal/internal/providers/storage"
	userdomain "github.com/crowngraphics/portal/internal/user/domain"
	userrepository "github.com/crowngraphics/portal/internal/user/repository"
	userservice "github.com/crowngraphics/portal/internal/user/service"
	"github.com/crowngraphics/portal/pkg/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIntake struct {
	calls   int
	last    intakedomain.Submission
	uploads []string
	result  intakedomain.Result
	err     error
}

func (f *fakeIntake) Ingest(_ context.Context, sub intakedomain.Submission, uploads []intakedomain.Upload) (intakedomain.Result, error) {
	f.calls++
	f.last = sub
	f.uploads = nil
	for _, u := range uploads {
		f.uploads = append(f.uploads, u.Filename)
	}
	return f.result, f.err
}

type fixture struct {
	server *Server
	jobs   jobdomain.Service
	users  userdomain.Service
	links  *linktoken.Issuer
	intake *fakeIntake
}

func setup(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.RunMigrations(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Now().UTC())
	log := zap.NewNop()

	users := userservice.New(userservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: userrepository.Provide()})
	_, err = users.EnsureAdmin(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	admin, err := users.VerifyCredentials(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	adminCtx := authctx.WithIdentity(context.Background(), authctx.Identity{UserID: admin.ID, Username: admin.Username, Role: authctx.RoleAdmin})
	_, err = users.Create(adminCtx, userdomain.CreateUserRequest{Username: "sam", Password: "pw123", Role: "staff"})
	require.NoError(t, err)

	authSvc := authservice.New(authservice.Params{
		Log:         log,
		Users:       users,
		SessionRepo: authrepository.New(conn),
		GenID:       node,
		Clock:       clk,
	})
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	audit := auditservice.NewService(auditservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: auditrepository.Provide()})
	jobs := jobservice.New(jobservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: jobrepository.Provide(), Audit: audit})
	uploads, err := storage.NewLocal(t.TempDir(), clk)
	require.NoError(t, err)

	cfg := config.Config{AuthJWTSecret: "test-secret", PublicBaseURL: "https://portal.example/"}
	links := linktoken.New(cfg, clk)
	intake := &fakeIntake{}

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:       engine,
		Cfg:       cfg,
		Log:       log,
		Authsvc:   authSvc,
		Sessions:  session.NewManager(cfg),
		AuthzSvc:  authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		UserSvc:   users,
		JobSvc:    jobs,
		AuditSvc:  audit,
		IntakeSvc: intake,
		Pricing:   config.NewStaticPricingTableHolder(pricing.DefaultTable()),
		Links:     links,
		Uploads:   uploads,
		Exporter:  export.NewWithLister(jobs, log),
	})
	return fixture{server: srv, jobs: jobs, users: users, links: links, intake: intake}
}

func (f fixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(rec, req)
	return rec
}

func (f fixture) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/login", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestLoginAndMe(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/auth/login", LoginRequest{Username: "sam", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := f.login(t, "sam", "pw123")
	rec = f.do(t, http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]string](t, rec)
	assert.Equal(t, "sam", me["username"])
	assert.Equal(t, "staff", me["role"])

	rec = f.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/admin/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "unauthorized", body.Error.Type)
}

func TestJobLifecycle_StaffAndAdmin(t *testing.T) {
	f := setup(t)
	staff := f.login(t, "sam", "pw123")
	admin := f.login(t, "admin", "admin123")

	rec := f.do(t, http.MethodPost, "/admin/jobs", jobdomain.Fields{CustomerName: "Ann", JobTitle: "Banner"}, staff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		ID snowflake.ID `json:"id"`
	}](t, rec)
	jobPath := "/admin/jobs/" + created.ID.String()

	rec = f.do(t, http.MethodGet, "/admin/jobs", nil, staff)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[jobdomain.ListResponse](t, rec)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "Ann", list.Jobs[0].CustomerName)

	rec = f.do(t, http.MethodGet, jobPath, nil, staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"logs"`)

	rec = f.do(t, http.MethodPost, jobPath+"/stage", changeStageRequest{Stage: "Design"}, staff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, jobPath+"/stage", changeStageRequest{Stage: "Shipped"}, staff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, jobPath+"/logs", nil, staff)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, jobPath, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]json.RawMessage](t, rec)
	assert.Contains(t, string(detail["logs"]), `"created"`)

	rec = f.do(t, http.MethodDelete, jobPath, nil, staff)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, jobPath, nil, admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, jobPath, nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateJob_ValidationError(t *testing.T) {
	f := setup(t)
	staff := f.login(t, "sam", "pw123")

	rec := f.do(t, http.MethodPost, "/admin/jobs", jobdomain.Fields{JobTitle: "Banner"}, staff)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, "invalid_customer_name", body.Error.Errors[0].Code)
	assert.Equal(t, "customer_name", body.Error.Errors[0].Field)
}

func TestUsers_AdminOnly(t *testing.T) {
	f := setup(t)
	staff := f.login(t, "sam", "pw123")
	admin := f.login(t, "admin", "admin123")

	rec := f.do(t, http.MethodGet, "/admin/users", nil, staff)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/users", userdomain.CreateUserRequest{Username: "sam", Password: "x"}, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/users", userdomain.CreateUserRequest{Username: "kim", Password: "x", Role: "admin"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kim"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestQuote(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/api/pricing/quote", map[string]any{
		"product":  "flyers",
		"size":     "8.5x11",
		"quantity": 150,
		"paper":    "premium",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 37.95, decode[map[string]float64](t, rec)["total"])

	rec = f.do(t, http.MethodPost, "/api/pricing/quote", map[string]any{
		"product":  "flyers",
		"size":     "8.5x11",
		"quantity": 150,
		"paper":    "glossy",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/pricing/table", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "business_cards")
}

func multipartOrder(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSubmitOrder(t *testing.T) {
	f := setup(t)
	f.intake.result = intakedomain.Result{OrderID: "web-1", JobID: 42, EmailSent: true, ChangeToken: "tok"}

	body, contentType := multipartOrder(t, map[string]string{
		"order_type":     "quick",
		"order_id":       "web-1",
		"name":           "Ann",
		"email":          "ann@example.com",
		"requested_item": "Flyers",
		"items_json":     `[{"qty": 2, "desc": "Flyer"}]`,
	}, map[string]string{"logo.png": "png"})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[orderResponse](t, rec)
	assert.True(t, resp.OK)
	assert.Equal(t, "42", resp.JobID)
	assert.Equal(t, "https://portal.example/api/orders/changes/tok", resp.ChangeURL)

	require.Equal(t, 1, f.intake.calls)
	assert.Equal(t, intakedomain.OrderTypeQuick, f.intake.last.OrderType)
	assert.Equal(t, "Ann", f.intake.last.Contact.Name)
	require.NotNil(t, f.intake.last.Quick)
	assert.Equal(t, "Flyers", f.intake.last.Quick.RequestedItem)
	require.Len(t, f.intake.last.Items, 1)
	assert.Equal(t, "Flyer", f.intake.last.Items[0].Description)
	assert.Equal(t, []string{"logo.png"}, f.intake.uploads)
}

func TestSubmitOrder_DedupAndErrors(t *testing.T) {
	f := setup(t)
	f.intake.result = intakedomain.Result{OrderID: "web-1", JobID: 42, Deduped: true}

	body, contentType := multipartOrder(t, map[string]string{"order_type": "large", "name": "Ann", "email": "a@b.c"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.intake.err = intakedomain.ErrInvalidOrderType
	body, contentType = multipartOrder(t, map[string]string{"order_type": "huge"}, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/orders", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	f.server.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitChangeRequest(t *testing.T) {
	f := setup(t)
	orderID := "web-77"
	ingested, err := f.jobs.Ingest(context.Background(), jobdomain.IngestRequest{Job: jobdomain.Job{
		CustomerName:  "Ann",
		JobTitle:      "Decals",
		IntakeOrderID: &orderID,
	}})
	require.NoError(t, err)

	token, err := f.links.Issue(ingested.Job.ID, orderID)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/orders/changes/"+token, changeRequest{ChangeNotes: "Make it blue"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/orders/changes/"+token, changeRequest{ChangeNotes: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/orders/changes/not-a-token", changeRequest{ChangeNotes: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportJobs(t *testing.T) {
	f := setup(t)
	staff := f.login(t, "sam", "pw123")

	rec := f.do(t, http.MethodGet, "/admin/exports/jobs.xlsx", nil, staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{jobdomain.ErrInvalidDate, http.StatusBadRequest},
		{pricing.ErrUnknownOption, http.StatusBadRequest},
		{userdomain.ErrInvalidCredentials, http.StatusUnauthorized},
		{userdomain.ErrLastAdmin, http.StatusForbidden},
		{userdomain.ErrUsernameTaken, http.StatusConflict},
		{ErrOrderInProgress, http.StatusConflict},
		{storage.ErrNotFound, http.StatusNotFound},
		{ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}

	_, payload := mapError(userdomain.ErrSelfDelete)
	assert.Equal(t, "cannot_delete_self", payload.Message)
}

package server

import (
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	intakeEndpoint  = "intake"
	multipartMemory = 8 << 20
)

type orderResponse struct {
	OK         bool    `json:"ok"`
	OrderID    string  `json:"order_id"`
	JobID      string  `json:"job_id"`
	Deduped    bool    `json:"deduped"`
	EmailSent  bool    `json:"email_sent"`
	EmailError *string `json:"email_error"`
	ChangeURL  string  `json:"change_url,omitempty"`
}

type changeRequest struct {
	ChangeNotes string `json:"change_notes" form:"change_notes"`
}

// IntakeRateLimit throttles website submissions per client address. Redis
// failures let the request through.
func (s *Server) IntakeRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.limiter.AllowClient(ctx, c.ClientIP())
		if err != nil {
			s.log.Warn("intake rate limit unavailable", zap.Error(err))
			s.obsMetrics.RecordRateLimitDenied(ctx, intakeEndpoint, "backend_error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			retry := int(math.Ceil(result.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			s.obsMetrics.RecordRateLimitDenied(ctx, intakeEndpoint, "exceeded")
			AbortWithError(c, ErrRateLimited)
			return
		}

		s.obsMetrics.RecordRateLimitAllowed(ctx, intakeEndpoint)
		c.Next()
	}
}

func (s *Server) SubmitOrder(c *gin.Context) {
	if s.cfg.Uploads.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Uploads.MaxBytes)
	}
	if err := parseOrderForm(c.Request); err != nil {
		AbortWithError(c, err)
		return
	}

	sub := submissionFromForm(c.Request.PostForm)
	if sub.OrderID != "" {
		c.Set("order_id", sub.OrderID)
	}

	ctx := c.Request.Context()
	if sub.OrderID != "" && s.limiter.Enabled() {
		token, ok, err := s.limiter.TryLockOrder(ctx, sub.OrderID)
		switch {
		case err != nil:
			s.log.Warn("intake order lock unavailable", zap.String("order_id", sub.OrderID), zap.Error(err))
		case !ok:
			AbortWithError(c, ErrOrderInProgress)
			return
		default:
			defer func() {
				if err := s.limiter.ReleaseOrder(ctx, sub.OrderID, token); err != nil {
					s.log.Warn("failed to release intake order lock", zap.String("order_id", sub.OrderID), zap.Error(err))
				}
			}()
		}
	}

	uploads, closeAll := openUploads(c.Request.MultipartForm, s.log)
	defer closeAll()

	result, err := s.intakeSvc.Ingest(ctx, sub, uploads)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("order_id", result.OrderID)

	resp := orderResponse{
		OK:         true,
		OrderID:    result.OrderID,
		JobID:      result.JobID.String(),
		Deduped:    result.Deduped,
		EmailSent:  result.EmailSent,
		EmailError: result.EmailError,
		ChangeURL:  s.changeURL(result.ChangeToken),
	}
	status := http.StatusCreated
	if result.Deduped {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// SubmitChangeRequest records a customer's change notes against the job
// their signed link points to.
func (s *Server) SubmitChangeRequest(c *gin.Context) {
	link, err := s.links.Verify(c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req changeRequest
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.jobSvc.RecordChangeRequest(c.Request.Context(), link.JobID, link.OrderID, req.ChangeNotes); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (s *Server) changeURL(token string) string {
	if token == "" {
		return ""
	}
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/api/orders/changes/" + url.PathEscape(token)
}

func parseOrderForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrPayloadTooLarge
	}
	return invalidRequestError()
}

func submissionFromForm(form url.Values) intakedomain.Submission {
	get := func(key string) string { return strings.TrimSpace(form.Get(key)) }

	sub := intakedomain.Submission{
		OrderType: intakedomain.OrderType(strings.ToLower(get("order_type"))),
		OrderID:   get("order_id"),
		Contact: intakedomain.Contact{
			Name:    get("name"),
			Email:   get("email"),
			Phone:   get("phone"),
			Company: get("company"),
			Notes:   get("notes"),
		},
		Items: intakedomain.ParseItems(form.Get("items_json")),
		Form:  make(map[string]string, len(form)),
	}
	for key, values := range form {
		if len(values) > 0 {
			sub.Form[key] = values[0]
		}
	}

	switch sub.OrderType {
	case intakedomain.OrderTypeQuick:
		sub.Quick = &intakedomain.QuickOrderFields{
			RequestedItem: get("requested_item"),
			NeededBy:      get("needed_by"),
			ContactMethod: get("contact_method"),
		}
	case intakedomain.OrderTypeLarge:
		sub.Large = &intakedomain.LargeProjectFields{
			ProjectType:     get("project_type"),
			Service:         get("service"),
			InstallLocation: get("install_location"),
			VehicleYear:     get("vehicle_year"),
			VehicleMake:     get("vehicle_make"),
			VehicleModel:    get("vehicle_model"),
			VIN:             get("vin"),
			UnitNumber:      get("unit_number"),
			Scope:           get("scope"),
		}
	}
	return sub
}

func openUploads(form *multipart.Form, log *zap.Logger) ([]intakedomain.Upload, func()) {
	if form == nil {
		return nil, func() {}
	}
	var (
		uploads []intakedomain.Upload
		files   []multipart.File
	)
	for _, header := range form.File["files"] {
		if header == nil || strings.TrimSpace(header.Filename) == "" {
			continue
		}
		f, err := header.Open()
		if err != nil {
			log.Warn("skipping unreadable upload", zap.String("filename", header.Filename), zap.Error(err))
			continue
		}
		files = append(files, f)
		uploads = append(uploads, intakedomain.Upload{Filename: header.Filename, Content: f})
	}
	return uploads, func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
}

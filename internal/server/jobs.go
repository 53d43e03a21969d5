package server

import (
	"net/http"

	auditdomain "github.com/crowngraphics/portal/internal/audit/domain"
	"github.com/crowngraphics/portal/internal/authctx"
	"github.com/crowngraphics/portal/internal/authorization"
	jobdomain "github.com/crowngraphics/portal/internal/job/domain"
	"github.com/crowngraphics/portal/pkg/db/pagination"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type jobDetailResponse struct {
	jobdomain.Detail
	Logs []auditdomain.JobLog `json:"logs,omitempty"`
}

type changeStageRequest struct {
	Stage string `json:"stage" form:"stage"`
}

type replaceLineItemsRequest struct {
	LineItems []jobdomain.LineItemInput `json:"line_items"`
}

func (s *Server) ListActiveJobs(c *gin.Context) {
	var page pagination.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.ListActive(c.Request.Context(), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListCompletedJobs(c *gin.Context) {
	var page pagination.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.ListCompleted(c.Request.Context(), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateJob(c *gin.Context) {
	var req jobdomain.Fields
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// GetJob also acknowledges the job so it drops its "new" badge.
func (s *Server) GetJob(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	detail, err := s.jobSvc.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if detail.Job.IsNew {
		if _, err := s.jobSvc.MarkViewed(ctx, id); err != nil {
			s.log.Warn("failed to mark job viewed", zap.String("job_id", id.String()), zap.Error(err))
		} else {
			detail.Job.IsNew = false
		}
	}

	resp := jobDetailResponse{Detail: detail}
	if s.canViewLogs(c) {
		logs, err := s.auditSvc.List(ctx, id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp.Logs = logs
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) canViewLogs(c *gin.Context) bool {
	identity, ok := authctx.FromContext(c.Request.Context())
	if !ok {
		return false
	}
	return s.authzSvc.Authorize(c.Request.Context(), identity, authorization.ObjectJobLog, authorization.ActionJobLogView) == nil
}

func (s *Server) UpdateJob(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req jobdomain.Fields
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) ReplaceLineItems(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req replaceLineItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	job, err := s.jobSvc.ReplaceLineItems(c.Request.Context(), id, req.LineItems)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) ChangeJobStage(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req changeStageRequest
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	change, err := s.jobSvc.AdvanceStage(c.Request.Context(), id, req.Stage)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (s *Server) DeleteJob(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.jobSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListJobLogs(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := s.jobSvc.Get(ctx, id); err != nil {
		AbortWithError(c, err)
		return
	}

	logs, err := s.auditSvc.List(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

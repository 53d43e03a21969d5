package server

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/crowngraphics/portal/internal/export"
	"github.com/crowngraphics/portal/internal/providers/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) DownloadUpload(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("path"), "/")
	if strings.TrimSpace(name) == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	rc, err := s.uploads.Open(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			s.log.Warn("close upload", zap.String("path", name), zap.Error(cerr))
		}
	}()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(name), rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", path.Base(name)),
	})
}

func (s *Server) ExportJobs(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.exporter.WriteJobs(c.Request.Context(), &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/crowngraphics/portal/internal/audit"
	auditdomain "github.com/crowngraphics/portal/internal/audit/domain"
	"github.com/crowngraphics/portal/internal/auth"
	authdomain "github.com/crowngraphics/portal/internal/auth/domain"
	"github.com/crowngraphics/portal/internal/auth/linktoken"
	"github.com/crowngraphics/portal/internal/auth/session"
	"github.com/crowngraphics/portal/internal/authorization"
	"github.com/crowngraphics/portal/internal/config"
	"github.com/crowngraphics/portal/internal/export"
	"github.com/crowngraphics/portal/internal/intake"
	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
	"github.com/crowngraphics/portal/internal/job"
	jobdomain "github.com/crowngraphics/portal/internal/job/domain"
	"github.com/crowngraphics/portal/internal/observability"
	obsmiddleware "github.com/crowngraphics/portal/internal/observability/logger"
	obsmetrics "github.com/crowngraphics/portal/internal/observability/metrics"
	obstracing "github.com/crowngraphics/portal/internal/observability/tracing"
	"github.com/crowngraphics/portal/internal/providers"
	"github.com/crowngraphics/portal/internal/providers/storage"
	"github.com/crowngraphics/portal/internal/ratelimit"
	"github.com/crowngraphics/portal/internal/user"
	userdomain "github.com/crowngraphics/portal/internal/user/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	user.Module,
	job.Module,
	intake.Module,
	providers.Module,
	export.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(CORS(cfg.CORSAllowedOrigins))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics, cfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	authsvc    authdomain.Service
	sessions   *session.Manager
	authzSvc   authorization.Service
	userSvc    userdomain.Service
	jobSvc     jobdomain.Service
	auditSvc   auditdomain.Service
	intakeSvc  intakedomain.Service
	pricing    *config.PricingTableHolder
	links      *linktoken.Issuer
	uploads    storage.Store
	exporter   *export.Exporter
	limiter    *ratelimit.IntakeLimiter
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Authsvc    authdomain.Service
	Sessions   *session.Manager
	AuthzSvc   authorization.Service
	UserSvc    userdomain.Service
	JobSvc     jobdomain.Service
	AuditSvc   auditdomain.Service
	IntakeSvc  intakedomain.Service
	Pricing    *config.PricingTableHolder
	Links      *linktoken.Issuer
	Uploads    storage.Store
	Exporter   *export.Exporter
	Limiter    *ratelimit.IntakeLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        log.Named("http.server"),
		authsvc:    p.Authsvc,
		sessions:   p.Sessions,
		authzSvc:   p.AuthzSvc,
		userSvc:    p.UserSvc,
		jobSvc:     p.JobSvc,
		auditSvc:   p.AuditSvc,
		intakeSvc:  p.IntakeSvc,
		pricing:    p.Pricing,
		links:      p.Links,
		uploads:    p.Uploads,
		exporter:   p.Exporter,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.WebAuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Website intake --------
	api.POST("/orders", s.IntakeRateLimit(), s.SubmitOrder)
	api.POST("/orders/changes/:token", s.SubmitChangeRequest)

	// -------- Pricing --------
	api.POST("/pricing/quote", s.Quote)
	api.GET("/pricing/table", s.PricingTable)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.WebAuthRequired())

	// -------- Jobs --------
	admin.GET("/jobs", s.authorize(authorization.ObjectJob, authorization.ActionJobView), s.ListActiveJobs)
	admin.GET("/jobs/completed", s.authorize(authorization.ObjectJob, authorization.ActionJobView), s.ListCompletedJobs)
	admin.POST("/jobs", s.authorize(authorization.ObjectJob, authorization.ActionJobCreate), s.CreateJob)
	admin.GET("/jobs/:id", s.authorize(authorization.ObjectJob, authorization.ActionJobView), s.GetJob)
	admin.PUT("/jobs/:id", s.authorize(authorization.ObjectJob, authorization.ActionJobUpdate), s.UpdateJob)
	admin.PUT("/jobs/:id/line-items", s.authorize(authorization.ObjectJob, authorization.ActionJobUpdate), s.ReplaceLineItems)
	admin.POST("/jobs/:id/stage", s.authorize(authorization.ObjectJob, authorization.ActionJobStage), s.ChangeJobStage)
	admin.DELETE("/jobs/:id", s.authorize(authorization.ObjectJob, authorization.ActionJobDelete), s.DeleteJob)
	admin.GET("/jobs/:id/logs", s.authorize(authorization.ObjectJobLog, authorization.ActionJobLogView), s.ListJobLogs)

	// -------- Uploads & exports --------
	admin.GET("/uploads/*path", s.authorize(authorization.ObjectUpload, authorization.ActionUploadView), s.DownloadUpload)
	admin.GET("/exports/jobs.xlsx", s.authorize(authorization.ObjectExport, authorization.ActionExportView), s.ExportJobs)

	// -------- Users --------
	admin.GET("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserView), s.ListUsers)
	admin.POST("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.CreateUser)
	admin.POST("/users/:id/reset-password", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.ResetUserPassword)
	admin.DELETE("/users/:id", s.authorize(authorization.ObjectUser, authorization.ActionUserManage), s.DeleteUser)
}

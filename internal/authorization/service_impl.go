package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/crowngraphics/portal/internal/authctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectJob    = "job"
	ObjectJobLog = "job_log"
	ObjectUpload = "upload"
	ObjectExport = "export"
	ObjectUser   = "user"
)

const (
	ActionJobView   = "job.view"
	ActionJobCreate = "job.create"
	ActionJobUpdate = "job.update"
	ActionJobStage  = "job.stage"
	ActionJobDelete = "job.delete"

	ActionJobLogView = "job_log.view"

	ActionUploadView = "upload.view"
	ActionExportView = "export.view"

	ActionUserView   = "user.view"
	ActionUserManage = "user.manage"
)

const (
	roleStaff = "role:staff"
	roleAdmin = "role:admin"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, identity authctx.Identity, object string, action string) error {
	if identity.UserID == 0 {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("user:%s", identity.UserID.String())
	roleName := roleStaff
	if identity.IsAdmin() {
		roleName = roleAdmin
	}
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("subject", subject),
			zap.String("username", identity.Username),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps exactly one role link per subject, so a role change
// on the account takes effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Staff run the job board.
		{roleStaff, ObjectJob, ActionJobView},
		{roleStaff, ObjectJob, ActionJobCreate},
		{roleStaff, ObjectJob, ActionJobUpdate},
		{roleStaff, ObjectJob, ActionJobStage},
		{roleStaff, ObjectUpload, ActionUploadView},
		{roleStaff, ObjectExport, ActionExportView},

		// Admin-only
		{roleAdmin, ObjectJob, ActionJobDelete},
		{roleAdmin, ObjectJobLog, ActionJobLogView},
		{roleAdmin, ObjectUser, ActionUserView},
		{roleAdmin, ObjectUser, ActionUserManage},
	}

	for _, policy := range policies {
		if has, err := enforcer.HasPolicy(policy); err != nil {
			return err
		} else if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	// Admins inherit every staff permission.
	if has, err := enforcer.HasGroupingPolicy(roleAdmin, roleStaff); err != nil {
		return err
	} else if !has {
		if _, err := enforcer.AddGroupingPolicy(roleAdmin, roleStaff); err != nil {
			return err
		}
	}
	return nil
}

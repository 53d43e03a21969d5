package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/auth/password"
	"github.com/crowngraphics/portal/internal/authctx"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/user/domain"
	"github.com/crowngraphics/portal/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.User{}, err
	}
	return s.create(ctx, req.Username, req.Password, domain.NormalizeRole(strings.TrimSpace(req.Role)))
}

func (s *Service) create(ctx context.Context, username, pass, role string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 80 {
		return domain.User{}, domain.ErrInvalidUsername
	}
	if pass == "" {
		return domain.User{}, domain.ErrInvalidPassword
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return domain.User{}, err
	}

	now := s.clock.Now().UTC()
	user := domain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrUsernameTaken
		}
		return domain.User{}, err
	}

	s.log.Info("user created",
		zap.String("username", user.Username),
		zap.String("role", user.Role),
		zap.String("actor", authctx.ActorName(ctx)),
	)
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		users = append(users, *item)
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.User, error) {
	if id == 0 {
		return domain.User{}, domain.ErrInvalidID
	}
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) ResetPassword(ctx context.Context, id snowflake.ID, pass string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if id == 0 {
		return domain.ErrInvalidID
	}
	if pass == "" {
		return domain.ErrInvalidPassword
	}
	hash, err := password.Hash(pass)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, s.db, id, hash, s.clock.Now().UTC()); err != nil {
		return err
	}
	s.log.Info("password reset", zap.String("user_id", id.String()), zap.String("actor", authctx.ActorName(ctx)))
	return nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	identity, ok := authctx.FromContext(ctx)
	if !ok || !identity.IsAdmin() {
		return domain.ErrForbidden
	}
	if id == 0 {
		return domain.ErrInvalidID
	}
	if identity.UserID == id {
		return domain.ErrSelfDelete
	}

	var deleted domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrNotFound
		}
		if user.IsAdmin() {
			// Locked so two admins deleting each other cannot both pass.
			admins, err := s.repo.LockIDsByRole(ctx, tx, domain.RoleAdmin)
			if err != nil {
				return err
			}
			if len(admins) <= 1 {
				return domain.ErrLastAdmin
			}
		}
		deleted = *user
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("user deleted", zap.String("username", deleted.Username), zap.String("actor", identity.Username))
	return nil
}

func (s *Service) VerifyCredentials(ctx context.Context, username, pass string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	user, err := s.repo.FindByUsername(ctx, s.db, username)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil || !password.Verify(pass, user.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return *user, nil
}

func (s *Service) EnsureAdmin(ctx context.Context, username, pass string) (bool, error) {
	existing, err := s.repo.FindByUsername(ctx, s.db, strings.TrimSpace(username))
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if _, err := s.create(ctx, username, pass, domain.RoleAdmin); err != nil {
		if err == domain.ErrUsernameTaken {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func requireAdmin(ctx context.Context) error {
	identity, ok := authctx.FromContext(ctx)
	if !ok || !identity.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

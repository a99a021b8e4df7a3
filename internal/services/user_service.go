package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/identity"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrBootstrapDenied = apierrors.New(apierrors.KindWrongRole, "admin role or bootstrap secret required")

// UserService keeps the local user directory in step with the identity
// provider and handles role administration.
type UserService struct {
	userRepo            repository.UserRepository
	bootstrapSecretHash []byte
	log                 *zap.Logger
}

// NewUserService creates a new UserService. An empty bootstrapSecretHash
// disables secret-based admin bootstrap.
func NewUserService(userRepo repository.UserRepository, bootstrapSecretHash string, log *zap.Logger) *UserService {
	return &UserService{
		userRepo:            userRepo,
		bootstrapSecretHash: []byte(bootstrapSecretHash),
		log:                 log,
	}
}

// UpdateProfileInput represents a partial profile edit
type UpdateProfileInput struct {
	Name   *string
	Bio    *string
	Avatar *string
}

// BootstrapAdminInput names the user to promote by uid or email.
type BootstrapAdminInput struct {
	UID    string
	Email  string
	Secret string
}

// EnsureUser returns the user for id, creating a SOLVER record on first sight.
func (s *UserService) EnsureUser(ctx context.Context, id identity.Identity) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apierrors.ErrNotFound) {
		return nil, err
	}

	if existing, err := s.userRepo.FindByEmail(ctx, id.Email); err == nil {
		return nil, apierrors.Newf(apierrors.KindValidation, "email %s is registered to another account", existing.Email)
	} else if !errors.Is(err, apierrors.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		ID:      id.ID,
		Email:   id.Email,
		Name:    id.Name,
		Role:    models.RoleSolver,
		Balance: decimal.Zero,
	}
	created, err := s.userRepo.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		return s.userRepo.FindByID(ctx, id.ID)
	}

	s.log.Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

// GetUser returns a user by id
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ListUsers returns every user. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor authz.Actor) ([]models.User, error) {
	if err := authz.Authorize(actor, authz.ActionListUsers, authz.Resource{}); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx)
}

// UpdateProfile edits the actor's own profile
func (s *UserService) UpdateProfile(ctx context.Context, actor authz.Actor, input UpdateProfileInput) (*models.User, error) {
	fields := make(map[string]any)
	if input.Name != nil {
		fields["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Bio != nil {
		fields["bio"] = strings.TrimSpace(*input.Bio)
	}
	if input.Avatar != nil {
		fields["avatar"] = strings.TrimSpace(*input.Avatar)
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateProfile(ctx, actor.ID, fields); err != nil {
			return nil, err
		}
	}
	return s.userRepo.FindByID(ctx, actor.ID)
}

// ChangeRole sets another user's role. Admin only, never on oneself.
func (s *UserService) ChangeRole(ctx context.Context, actor authz.Actor, targetID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apierrors.Validation("role must be SOLVER, BUYER or ADMIN")
	}

	if err := authz.Authorize(actor, authz.ActionChangeRole, authz.Resource{TargetUserID: targetID}); err != nil {
		return nil, err
	}

	if err := s.userRepo.SetRole(ctx, targetID, role); err != nil {
		return nil, err
	}

	s.log.Info("User role changed",
		zap.String("user_id", targetID),
		zap.String("role", string(role)),
		zap.String("actor_id", actor.ID),
	)
	return s.userRepo.FindByID(ctx, targetID)
}

// BootstrapAdmin promotes a user to ADMIN, creating it when unknown. The
// caller must be an admin or present the bootstrap secret.
func (s *UserService) BootstrapAdmin(ctx context.Context, actor *authz.Actor, input BootstrapAdminInput) (*models.User, error) {
	if !s.mayBootstrap(actor, input.Secret) {
		return nil, ErrBootstrapDenied
	}

	uid := strings.TrimSpace(input.UID)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if uid == "" && email == "" {
		return nil, apierrors.Validation("email or uid is required")
	}

	var (
		user *models.User
		err  error
	)
	if uid != "" {
		user, err = s.userRepo.FindByID(ctx, uid)
	} else {
		user, err = s.userRepo.FindByEmail(ctx, email)
	}

	switch {
	case err == nil:
		if err := s.userRepo.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return nil, err
		}
		user.Role = models.RoleAdmin
	case errors.Is(err, apierrors.ErrNotFound):
		if uid == "" || email == "" {
			return nil, apierrors.Validation("both email and uid are required to create a new admin")
		}
		user = &models.User{ID: uid, Email: email, Role: models.RoleAdmin, Balance: decimal.Zero}
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.log.Warn("Admin granted", zap.String("user_id", user.ID))
	return user, nil
}

func (s *UserService) mayBootstrap(actor *authz.Actor, secret string) bool {
	if actor != nil && actor.IsAdmin() {
		return true
	}
	if len(s.bootstrapSecretHash) == 0 || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.bootstrapSecretHash, []byte(secret)) == nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/YugenJarwal13/InternalDMS/internal/auth"
	"github.com/YugenJarwal13/InternalDMS/internal/config"
	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
)

var fieldValidator = validator.New()

// emailRule checks address syntax with the same validator the config uses.
var emailRule = validation.By(func(value interface{}) error {
	v, isNil := validation.Indirect(value)
	s, _ := v.(string)
	if isNil || s == "" {
		return nil
	}
	if err := fieldValidator.Var(s, "email"); err != nil {
		return errors.New("must be a valid email address")
	}
	return nil
})

var roleRule = validation.By(func(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	if r, _ := v.(models.Role); !r.Valid() {
		return fmt.Errorf("must be %q or %q", models.RoleAdmin, models.RoleUser)
	}
	return nil
})

var passwordRule = validation.RuneLength(config.MinPasswordLength, 72) // bcrypt reads at most 72 bytes

// dummyHash is compared against when the email is unknown so that failed
// logins take the same time either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("internaldms-no-such-user"), bcrypt.DefaultCost)

// UserService implements services.UserService
type UserService struct {
	userRepo repositories.UserRepository
	teamRepo repositories.TeamRepository
	issuer   auth.TokenIssuer
	logger   *slog.Logger
}

// NewUserService creates a new user service. issuer may be nil when only
// externally issued tokens are accepted; Login then fails.
func NewUserService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	issuer auth.TokenIssuer,
	logger *slog.Logger,
) services.UserService {
	return &UserService{
		userRepo: userRepo,
		teamRepo: teamRepo,
		issuer:   issuer,
		logger:   logger,
	}
}

func (s *UserService) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResponse, error) {
	invalid := &domain.UnauthorizedError{Message: "invalid email or password"}
	if s.issuer == nil {
		return nil, &domain.UnauthorizedError{Message: "password login is disabled"}
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("login failed", "user_id", user.ID)
		return nil, invalid
	}

	token, ttl, err := s.issuer.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &services.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(ttl / time.Second),
		User:        user,
	}, nil
}

func (s *UserService) ResolvePrincipal(ctx context.Context, claims *models.AccessClaims) (*models.Principal, error) {
	user, err := s.userRepo.GetByID(ctx, claims.GetUserID())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.UnauthorizedError{Message: "user no longer exists"}
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return &models.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s *UserService) Me(ctx context.Context, p *models.Principal) (*models.User, error) {
	return s.userRepo.GetByID(ctx, p.UserID)
}

func (s *UserService) List(ctx context.Context, p *models.Principal) ([]models.User, error) {
	if err := requireAdmin(p, "list users"); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx)
}

func (s *UserService) Create(ctx context.Context, p *models.Principal, req *services.CreateUserRequest) (*models.User, error) {
	if err := requireAdmin(p, "create users"); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	req.Email = strings.TrimSpace(req.Email)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, emailRule),
		validation.Field(&req.Password, validation.Required, passwordRule),
		validation.Field(&req.Role, roleRule),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role, "created_by", p.UserID)
	return user, nil
}

func (s *UserService) Update(ctx context.Context, p *models.Principal, id string, req *services.UpdateUserRequest) (*models.User, error) {
	if err := requireAdmin(p, "edit users"); err != nil {
		return nil, err
	}
	if req.Email != nil {
		*req.Email = strings.TrimSpace(*req.Email)
	}
	err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.NilOrNotEmpty, emailRule),
		validation.Field(&req.Password, validation.NilOrNotEmpty, passwordRule),
		validation.Field(&req.Role, roleRule),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		if user.ID == p.UserID && *req.Role != models.RoleAdmin {
			return nil, &domain.ValidationError{Message: "admins cannot demote themselves"}
		}
		user.Role = *req.Role
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", user.ID, "updated_by", p.UserID)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, p *models.Principal, id string) error {
	if err := requireAdmin(p, "delete users"); err != nil {
		return err
	}
	if id == p.UserID {
		return &domain.ValidationError{Message: "admins cannot delete themselves"}
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.teamRepo.RemoveUserFromAll(ctx, id); err != nil {
		return fmt.Errorf("remove memberships: %w", err)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", id, "deleted_by", p.UserID)
	return nil
}

// requireAdmin denies non-admin principals.
func requireAdmin(p *models.Principal, what string) error {
	if p == nil {
		return &domain.UnauthorizedError{Message: "authentication required"}
	}
	if !p.IsAdmin() {
		return &domain.PermissionDeniedError{Action: what, Path: "-", Reason: "admin role required"}
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"careops/backend/internal/auth"
	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// RegisterInput carries a new staff account. An empty Role means staff.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// IUserService defines the interface for staff account operations.
type IUserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	// Authenticate returns ErrInvalidCredentials for both an unknown email and a wrong password.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
}

type userService struct {
	users store.UserStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserStore, log zerolog.Logger) IUserService {
	return &userService{
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With().Str("component", "users").Logger(),
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" || email == "" {
		return nil, invalidf("name and email are required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalidf("password must be at least %d characters", MinPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	if !role.Valid() {
		return nil, invalidf("unknown role %q", role)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Base:         models.NewBase(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.log.Warn().Str("email", email).Msg("registration rejected, email exists")
			return nil, ErrEmailExists
		}
		return nil, storeErr(err, "user", u.ID)
	}
	s.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn().Str("email", email).Msg("login failed, unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr(err, "user", "")
	}
	if !auth.CheckPasswordHash(password, u.PasswordHash) {
		s.log.Warn().Str("user_id", u.ID).Msg("login failed, wrong password")
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	return u, storeErr(err, "user", id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

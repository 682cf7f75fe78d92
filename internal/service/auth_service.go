package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid Credentials"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users            repository.UserRepository
	tokens           auth.CredentialIssuer
	passwords        *auth.PasswordHasher
	allowAdminSignup bool
	minPasswordLen   int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokens auth.CredentialIssuer) *AuthService {
	return &AuthService{
		users:            users,
		tokens:           tokens,
		passwords:        auth.NewPasswordHasher(cfg.BcryptCost),
		allowAdminSignup: cfg.AllowAdminSignup,
		minPasswordLen:   cfg.MinPasswordLength,
	}
}

// Register creates an account and signs a credential for it. The role
// defaults to student.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < s.minPasswordLen {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": s.minPasswordLen})
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	switch role {
	case domain.RoleAdmin:
		if !s.allowAdminSignup {
			return nil, apperrors.NewForbidden("admin registration is disabled")
		}
	case domain.RoleStudent:
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError(msgUserExists, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewValidationError(msgUserExists, nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.issue(user)
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}
	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.passwords.CompareMissing(password)
			return nil, apperrors.NewValidationError(msgInvalidCredentials, nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.passwords.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewValidationError(msgInvalidCredentials, nil)
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(domain.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperrors.NewValidationError("email and password required", nil)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewValidationError("invalid email", map[string]any{"email": raw})
	}
	return email, nil
}

// Package services contains the server-side business logic behind the HTTP
// handlers. This file implements AuthService: registration, login with the
// failed-attempt throttle, and session lookup.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/dmitrijs2005/chatassist/internal/server/auth"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chatassist/internal/server/throttle"
)

// Session is an authenticated user plus the token to put in the cookie.
type Session struct {
	User  *models.User
	Token string
}

type AuthService struct {
	repos    repomanager.RepositoryManager
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	throttle throttle.Throttle
	logger   logging.Logger
	now      func() time.Time
}

func NewAuthService(repos repomanager.RepositoryManager, hasher *auth.PasswordHasher, tokens *auth.TokenService,
	th throttle.Throttle, logger logging.Logger) *AuthService {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &AuthService{
		repos:    repos,
		hasher:   hasher,
		tokens:   tokens,
		throttle: th,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*Session, error) {
	// presence only; blank values fail the format checks below
	if email == "" || password == "" || name == "" {
		return nil, common.NewValidationError(MsgRegisterFieldsRequired)
	}
	if !ValidEmail(email) {
		return nil, common.NewValidationError(MsgInvalidEmail)
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	email = common.NormalizeEmail(email)
	users := s.repos.Users()

	_, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.NewValidationError(MsgUserExists)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := users.Create(ctx, &models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil, common.NewValidationError(MsgUserExists)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.open(user)
}

// Login checks credentials. Unknown emails and wrong passwords fail the same
// way and both count towards the lockout.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, common.NewValidationError(MsgLoginFieldsRequired)
	}
	if !ValidEmail(email) {
		return nil, common.NewValidationError(MsgInvalidEmail)
	}

	locked, err := s.throttle.IsLocked(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}
	if locked {
		s.logger.Warn(ctx, "login locked out", "email", common.NormalizeEmail(email))
		return nil, common.ErrorRateLimited
	}

	user, err := s.repos.Users().FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			return nil, fmt.Errorf("throttle: %w", err)
		}
		return nil, common.ErrorInvalidCredentials
	}

	if err := s.throttle.Clear(ctx, email); err != nil {
		s.logger.Warn(ctx, "throttle clear failed", "error", err.Error())
	}

	at := s.now().UTC()
	if err := s.repos.Users().UpdateLastLogin(ctx, user.ID, at); err != nil {
		return nil, err
	}
	user.LastLoginAt = &at

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return s.open(user)
}

func (s *AuthService) open(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

// Verify returns the claims of a valid token, or ErrorUnauthenticated.
func (s *AuthService) Verify(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrorUnauthenticated
	}
	claims, ok := s.tokens.Verify(token)
	if !ok {
		return nil, common.ErrorUnauthenticated
	}
	return claims, nil
}

// CurrentUser loads the active user behind a session. Missing or
// deactivated users yield ErrorUnauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, common.ErrorUnauthenticated
	}
	user, err := s.repos.Users().FindByID(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// TokenTTL is how long issued sessions last.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

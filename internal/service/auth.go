package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/course_market/internal/hash"
	"github.com/Skotchmaster/course_market/internal/logging"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/tokens"
	"github.com/Skotchmaster/course_market/internal/validation"
	"github.com/google/uuid"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Hasher *hash.Bcrypt
	Tokens *tokens.Issuer
	Events Publisher
	Topic  string

	dummyOnce sync.Once
	dummyHash string
}

type AuthResult struct {
	Account   *models.Account
	Token     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	if err := validation.Struct(in); err != nil {
		l.Info("register_rejected", "status", 400, "reason", "validation", "error", err)
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "hash failed", "error", err)
		return nil, fmt.Errorf("%w: hash: %v", ErrStoreUnavailable, err)
	}

	acc := &models.Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: &pwHash,
		Role:         in.Role,
		Provider:     models.ProviderLocal,
	}
	if err := s.Repo.Create(ctx, acc); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			l.Info("register_rejected", "status", 409, "reason", "duplicate email")
			return nil, ErrDuplicateEmail
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	res, err := s.issue(acc)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "issue token", "error", err)
		return nil, err
	}
	l.Info("register_successful", "account_id", acc.ID, "role", acc.Role)
	s.publish(ctx, EventRegistered, acc, nil)
	return res, nil
}

// Login answers every failure with ErrInvalidCredentials and spends a
// bcrypt comparison even when the account does not exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	acc, err := s.Repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		s.burn(password)
		l.Info("login_failed", "status", 401, "reason", "unknown email")
		return nil, ErrInvalidCredentials
	case err != nil:
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}

	if !acc.HasPassword() {
		s.burn(password)
		l.Info("login_failed", "status", 401, "reason", "federated only", "account_id", acc.ID)
		return nil, ErrInvalidCredentials
	}
	if !s.Hasher.Verify(password, *acc.PasswordHash) {
		l.Info("login_failed", "status", 401, "reason", "wrong password", "account_id", acc.ID)
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(acc)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "issue token", "error", err)
		return nil, err
	}
	l.Info("login_successful", "account_id", acc.ID)
	s.publish(ctx, EventLoggedIn, acc, nil)
	return res, nil
}

// Me loads the account behind verified claims. An account that no longer
// exists is treated as signed out.
func (s *AuthService) Me(ctx context.Context, claims *tokens.Claims) (*models.Account, error) {
	if claims == nil {
		return nil, ErrUnauthenticated
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	acc, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		logging.FromContext(ctx).Warn("me_account_missing", "account_id", id)
		return nil, ErrUnauthenticated
	}
	return acc, err
}

func (s *AuthService) issue(acc *models.Account) (*AuthResult, error) {
	token, exp, err := s.Tokens.Issue(acc.ID.String(), acc.Email, acc.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: acc, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) burn(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("not-a-real-password")
	})
	_ = s.Hasher.Verify(password, s.dummyHash)
}

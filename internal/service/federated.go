package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/Skotchmaster/course_market/internal/logging"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/oauth"
	"github.com/Skotchmaster/course_market/internal/repo"
)

func DefaultAvatar(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name)
}

// FederatedSignIn finds or creates the account for a provider identity.
// An existing local account is linked only when the provider vouches for
// the email address.
func (s *AuthService) FederatedSignIn(ctx context.Context, id oauth.Identity) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.federated", "provider", id.Provider)

	id.Email = models.NormalizeEmail(id.Email)
	if id.Provider == "" || id.Subject == "" {
		return nil, invalid("identity", "provider did not return a subject")
	}
	if id.Email == "" {
		return nil, invalid("email", "provider did not return an email")
	}
	fid := id.FederatedID()

	acc, outcome, err := s.resolveFederated(ctx, id, fid)
	if outcome == "create" && (errors.Is(err, repo.ErrDuplicateEmail) || errors.Is(err, repo.ErrDuplicateIdentity)) {
		// lost a create race, the winner's row is there now
		acc, err = s.Repo.FindByFederatedID(ctx, fid)
		outcome = "existing"
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrDuplicateEmail
		}
		l.Warn("federated_sign_in_failed", "reason", outcome, "error", err)
		return nil, err
	}

	res, err := s.issue(acc)
	if err != nil {
		l.Error("federated_sign_in_error", "status", 500, "reason", "issue token", "error", err)
		return nil, err
	}
	l.Info("federated_sign_in_successful", "account_id", acc.ID, "outcome", outcome)
	s.publish(ctx, EventFederatedSignIn, acc, map[string]any{"outcome": outcome, "idp": id.Provider})
	return res, nil
}

func (s *AuthService) resolveFederated(ctx context.Context, id oauth.Identity, fid string) (*models.Account, string, error) {
	acc, err := s.Repo.FindByFederatedID(ctx, fid)
	if err == nil {
		return acc, "existing", nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, "lookup", err
	}

	acc, err = s.Repo.FindByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if !id.EmailVerified || acc.FederatedID != nil {
			return nil, "link refused", ErrDuplicateEmail
		}
		acc.FederatedID = &fid
		acc.EmailVerified = true
		if acc.Avatar == "" {
			acc.Avatar = id.Avatar
		}
		if err := s.Repo.Save(ctx, acc); err != nil {
			return nil, "link", err
		}
		return acc, "linked", nil
	case !errors.Is(err, ErrNotFound):
		return nil, "lookup", err
	}

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name, _, _ = strings.Cut(id.Email, "@")
	}
	avatar := id.Avatar
	if avatar == "" {
		avatar = DefaultAvatar(name)
	}
	acc = &models.Account{
		Name:          name,
		Email:         id.Email,
		Role:          models.RoleStudent,
		Provider:      models.ProviderFederated,
		FederatedID:   &fid,
		Avatar:        avatar,
		EmailVerified: id.EmailVerified,
	}
	if err := s.Repo.Create(ctx, acc); err != nil {
		return nil, "create", err
	}
	return acc, "created", nil
}

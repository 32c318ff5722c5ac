package service

import (
	"context"

	"github.com/Skotchmaster/course_market/internal/logging"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/tokens"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/google/uuid"
)

type AccountList struct {
	Items []models.Account
	Page  int
	Size  int
	Total int64
	Stats *repo.Stats
}

func requireAdmin(actor *tokens.Claims) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *AuthService) ListAccounts(ctx context.Context, actor *tokens.Claims, page, size int) (*AccountList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	offset, limit := util.Calculate(page, size)
	items, total, err := s.Repo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	stats, err := s.Repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &AccountList{
		Items: items,
		Page:  offset/limit + 1,
		Size:  limit,
		Total: total,
		Stats: stats,
	}, nil
}

func (s *AuthService) ChangeRole(ctx context.Context, actor *tokens.Claims, id uuid.UUID, role string) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.change_role")
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !models.ValidRole(role) {
		return nil, invalid("role", "must be one of: student instructor admin")
	}
	if actor.Subject == id.String() {
		return nil, invalid("id", "cannot change your own role")
	}

	acc, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.Role == role {
		return acc, nil
	}
	prev := acc.Role
	acc.Role = role
	if err := s.Repo.Save(ctx, acc); err != nil {
		l.Error("change_role_error", "account_id", id, "error", err)
		return nil, err
	}
	l.Info("change_role_successful", "account_id", id, "from", prev, "to", role, "by", actor.Subject)
	s.publish(ctx, EventRoleChanged, acc, map[string]any{"previous_role": prev, "changed_by": actor.Subject})
	return acc, nil
}

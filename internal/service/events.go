package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/course_market/internal/logging"
	"github.com/Skotchmaster/course_market/internal/models"
)

const (
	EventRegistered      = "account_registered"
	EventLoggedIn        = "account_logged_in"
	EventFederatedSignIn = "account_federated_sign_in"
	EventRoleChanged     = "account_role_changed"
)

const DefaultTopic = "account_events"

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

func (s *AuthService) publish(ctx context.Context, typ string, acc *models.Account, extra map[string]any) {
	if s.Events == nil {
		return
	}
	event := map[string]any{
		"type":       typ,
		"account_id": acc.ID.String(),
		"email":      acc.Email,
		"role":       acc.Role,
		"provider":   acc.Provider,
		"at":         time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		event[k] = v
	}

	topic := s.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(ctx, topic, acc.ID.String(), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "event", typ, "error", err)
	}
}

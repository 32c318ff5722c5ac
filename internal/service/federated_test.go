package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func googleID(sub, email string, verified bool) oauth.Identity {
	return oauth.Identity{Provider: "google", Subject: sub, Email: email, Name: "Fed User", EmailVerified: verified}
}

func TestFederatedCreatesStudent(t *testing.T) {
	s, pub := newTestAuthService(t)
	ctx := context.Background()

	res, err := s.FederatedSignIn(ctx, googleID("g-1", "New@Example.com", true))
	require.NoError(t, err)
	acc := res.Account
	assert.Equal(t, "new@example.com", acc.Email)
	assert.Equal(t, models.ProviderFederated, acc.Provider)
	assert.Equal(t, models.RoleStudent, acc.Role)
	assert.False(t, acc.HasPassword())
	require.NotNil(t, acc.FederatedID)
	assert.Equal(t, "google:g-1", *acc.FederatedID)
	assert.Equal(t, DefaultAvatar("Fed User"), acc.Avatar)
	assert.NotEmpty(t, res.Token)

	again, err := s.FederatedSignIn(ctx, googleID("g-1", "new@example.com", true))
	require.NoError(t, err)
	assert.Equal(t, acc.ID, again.Account.ID)

	require.Len(t, pub.events, 2)
	assert.Equal(t, "created", pub.events[0].event["outcome"])
	assert.Equal(t, "existing", pub.events[1].event["outcome"])
}

func TestFederatedLinksVerifiedEmail(t *testing.T) {
	s, _ := newTestAuthService(t)
	ctx := context.Background()
	local := register(t, s, "Ada", "ada@example.com", "secret1", "instructor")

	res, err := s.FederatedSignIn(ctx, googleID("g-ada", "ADA@example.com", true))
	require.NoError(t, err)
	assert.Equal(t, local.Account.ID, res.Account.ID)
	assert.Equal(t, models.RoleInstructor, res.Account.Role)
	assert.Equal(t, models.ProviderLocal, res.Account.Provider)
	assert.True(t, res.Account.EmailVerified)

	// password sign-in still works after linking
	_, err = s.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
}

func TestFederatedRefusesUnverifiedLink(t *testing.T) {
	s, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, s, "Ada", "ada@example.com", "secret1", "")

	_, err := s.FederatedSignIn(ctx, googleID("g-evil", "ada@example.com", false))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestFederatedRefusesSecondIdentityForLinkedAccount(t *testing.T) {
	s, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := s.FederatedSignIn(ctx, googleID("g-1", "fed@example.com", true))
	require.NoError(t, err)
	_, err = s.FederatedSignIn(ctx, googleID("g-2", "fed@example.com", true))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestFederatedIncompleteIdentity(t *testing.T) {
	s, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := s.FederatedSignIn(ctx, oauth.Identity{Provider: "google", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.FederatedSignIn(ctx, oauth.Identity{Provider: "google", Subject: "1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFederatedNameFallsBackToEmail(t *testing.T) {
	s, _ := newTestAuthService(t)
	id := googleID("g-3", "grace@example.com", true)
	id.Name = ""
	id.Avatar = "https://example.com/g.png"

	res, err := s.FederatedSignIn(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "grace", res.Account.Name)
	assert.Equal(t, "https://example.com/g.png", res.Account.Avatar)
}

package repo

import (
	"context"
	"testing"

	"github.com/Skotchmaster/course_market/internal/db"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	gdb, err := db.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &GormRepo{DB: gdb}
}

func ptr(s string) *string { return &s }

func localAccount(name, email string) *models.Account {
	return &models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: ptr("$2a$04$placeholderplaceholderplaceholderplaceholderpla"),
		Role:         models.RoleStudent,
		Provider:     models.ProviderLocal,
	}
}

func TestCreateAndFind(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	acc := localAccount("Ada", "  Ada@Example.COM ")
	require.NoError(t, r.Create(ctx, acc))
	require.NotEqual(t, uuid.Nil, acc.ID)
	assert.Equal(t, "ada@example.com", acc.Email)

	byEmail, err := r.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byEmail.ID)

	byID, err := r.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)
}

func TestFindMissing(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByFederatedID(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateEmailAnyCase(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, localAccount("Ada", "ada@example.com")))
	err := r.Create(ctx, localAccount("Ada 2", "ADA@EXAMPLE.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreateDuplicateFederatedIdentity(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first := &models.Account{Name: "G", Email: "g1@example.com", Provider: models.ProviderFederated, FederatedID: ptr("google:1")}
	require.NoError(t, r.Create(ctx, first))

	found, err := r.FindByFederatedID(ctx, "google:1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	second := &models.Account{Name: "G", Email: "g2@example.com", Provider: models.ProviderFederated, FederatedID: ptr("google:1")}
	assert.ErrorIs(t, r.Create(ctx, second), ErrDuplicateIdentity)
}

func TestNullFederatedIDsDoNotCollide(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, localAccount("A", "a@example.com")))
	require.NoError(t, r.Create(ctx, localAccount("B", "b@example.com")))
}

func TestCreateRejectsInvalidModel(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	noHash := &models.Account{Name: "X", Email: "x@example.com", Provider: models.ProviderLocal}
	assert.ErrorIs(t, r.Create(ctx, noHash), models.ErrLocalWithoutPassword)

	badRole := localAccount("Y", "y@example.com")
	badRole.Role = "root"
	assert.ErrorIs(t, r.Create(ctx, badRole), models.ErrInvalidRole)
}

func TestSaveUpdatesRole(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	acc := localAccount("Ada", "ada@example.com")
	require.NoError(t, r.Create(ctx, acc))

	acc.Role = models.RoleInstructor
	require.NoError(t, r.Save(ctx, acc))

	got, err := r.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, got.Role)
}

func TestListAndStats(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, localAccount("A", "a@example.com")))
	require.NoError(t, r.Create(ctx, localAccount("B", "b@example.com")))
	require.NoError(t, r.Create(ctx, &models.Account{
		Name: "G", Email: "g@example.com", Provider: models.ProviderFederated, FederatedID: ptr("google:9"),
	}))

	page, total, err := r.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	rest, _, err := r.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	st, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Total)
	assert.Equal(t, int64(2), st.ByProvider[models.ProviderLocal])
	assert.Equal(t, int64(1), st.ByProvider[models.ProviderFederated])
	assert.Equal(t, int64(3), st.ByRole[models.RoleStudent])
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	r := newTestRepo(t)
	sqlDB, err := r.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = r.FindByEmail(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

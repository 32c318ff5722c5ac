package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateIdentity = errors.New("federated identity already linked")
	ErrStoreUnavailable  = errors.New("credential store unavailable")
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, "email = ?", models.NormalizeEmail(email))
}

func (r *GormRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormRepo) FindByFederatedID(ctx context.Context, federatedID string) (*models.Account, error) {
	if federatedID == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, "federated_id = ?", federatedID)
}

func (r *GormRepo) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where(query, arg).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &acc, nil
}

// Create inserts a new account. Uniqueness is left to the database indexes,
// so concurrent creates with the same email yield exactly one row.
func (r *GormRepo) Create(ctx context.Context, acc *models.Account) error {
	err := r.DB.WithContext(ctx).Create(acc).Error
	if err == nil {
		return nil
	}
	if isModelErr(err) {
		return err
	}
	if !isUniqueViolation(err) {
		return storeErr(err)
	}
	if _, findErr := r.FindByEmail(ctx, acc.Email); findErr == nil {
		return ErrDuplicateEmail
	}
	if acc.FederatedID != nil {
		return ErrDuplicateIdentity
	}
	return ErrDuplicateEmail
}

func (r *GormRepo) Save(ctx context.Context, acc *models.Account) error {
	err := r.DB.WithContext(ctx).Save(acc).Error
	switch {
	case err == nil:
		return nil
	case isModelErr(err):
		return err
	case isUniqueViolation(err):
		return ErrDuplicateIdentity
	default:
		return storeErr(err)
	}
}

func (r *GormRepo) List(ctx context.Context, offset, limit int) ([]models.Account, int64, error) {
	var (
		total int64
		out   []models.Account
	)
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, storeErr(err)
	}
	return out, total, nil
}

type Stats struct {
	Total      int64            `json:"total"`
	ByProvider map[string]int64 `json:"by_provider"`
	ByRole     map[string]int64 `json:"by_role"`
}

func (r *GormRepo) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByProvider: map[string]int64{}, ByRole: map[string]int64{}}
	if err := r.groupCount(ctx, "provider", st.ByProvider); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "role", st.ByRole); err != nil {
		return nil, err
	}
	for _, n := range st.ByProvider {
		st.Total += n
	}
	return st, nil
}

func (r *GormRepo) groupCount(ctx context.Context, column string, into map[string]int64) error {
	var rows []struct {
		Grp string
		N   int64
	}
	err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Select(column + " AS grp, COUNT(*) AS n").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return storeErr(err)
	}
	for _, row := range rows {
		into[row.Grp] = row.N
	}
	return nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func isModelErr(err error) bool {
	return errors.Is(err, models.ErrInvalidRole) ||
		errors.Is(err, models.ErrInvalidProvider) ||
		errors.Is(err, models.ErrLocalWithoutPassword)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key")
}

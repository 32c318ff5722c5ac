package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

const (
	ProviderLocal     = "local"
	ProviderFederated = "federated"
)

var (
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidProvider      = errors.New("invalid provider")
	ErrLocalWithoutPassword = errors.New("local account requires a password hash")
)

type Account struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"not null"             json:"name"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  *string   `json:"-"`
	Role          string    `gorm:"not null"             json:"role"`
	Provider      string    `gorm:"not null"             json:"provider"`
	FederatedID   *string   `gorm:"uniqueIndex"          json:"-"`
	Avatar        string    `json:"avatar"`
	EmailVerified bool      `gorm:"not null"             json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps the stored row consistent no matter which code path writes it.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.Email = NormalizeEmail(a.Email)
	if a.Role == "" {
		a.Role = RoleStudent
	}
	if !ValidRole(a.Role) {
		return ErrInvalidRole
	}
	switch a.Provider {
	case ProviderLocal:
		if !a.HasPassword() {
			return ErrLocalWithoutPassword
		}
	case ProviderFederated:
	default:
		return ErrInvalidProvider
	}
	return nil
}

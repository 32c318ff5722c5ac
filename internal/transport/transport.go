package transport

import (
	"time"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/validation"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

type AuthResponse struct {
	Account   *models.Account `json:"account"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type AccountResponse struct {
	Account *models.Account `json:"account"`
}

type AccountsPage struct {
	Items []models.Account `json:"items"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Total int64            `json:"total"`
	Stats *repo.Stats      `json:"stats"`
}

type ErrorResponse struct {
	Error    string                  `json:"error"`
	Message  string                  `json:"message"`
	Details  []validation.FieldError `json:"details,omitempty"`
	Redirect string                  `json:"redirect,omitempty"`
}

// APIError is a rejection rendered as a JSON error body.
type APIError struct {
	Status   int
	Code     string
	Message  string
	Details  []validation.FieldError
	Redirect string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *APIError) Body() ErrorResponse {
	return ErrorResponse{Error: e.Code, Message: e.Message, Details: e.Details, Redirect: e.Redirect}
}

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
)

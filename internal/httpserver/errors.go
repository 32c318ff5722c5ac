package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Skotchmaster/course_market/internal/logging"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/transport"
	"github.com/labstack/echo/v4"
)

// apiError maps service errors to the client-facing taxonomy. Anything
// unrecognized becomes a generic 500.
func apiError(err error) *transport.APIError {
	var verr *service.ValidationError
	var apiErr *transport.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verr):
		return &transport.APIError{Status: http.StatusBadRequest, Code: transport.CodeValidation, Message: "invalid input", Details: verr.Fields}
	case errors.Is(err, service.ErrDuplicateEmail):
		return &transport.APIError{Status: http.StatusConflict, Code: transport.CodeDuplicateEmail, Message: "email already registered"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return &transport.APIError{Status: http.StatusUnauthorized, Code: transport.CodeInvalidCredentials, Message: "invalid email or password"}
	case errors.Is(err, service.ErrUnauthenticated):
		return &transport.APIError{Status: http.StatusUnauthorized, Code: transport.CodeUnauthenticated, Message: "authentication required"}
	case errors.Is(err, service.ErrForbidden):
		return &transport.APIError{Status: http.StatusForbidden, Code: transport.CodeForbidden, Message: "insufficient role"}
	case errors.Is(err, service.ErrNotFound):
		return &transport.APIError{Status: http.StatusNotFound, Code: transport.CodeNotFound, Message: "not found"}
	default:
		return &transport.APIError{Status: http.StatusInternalServerError, Code: transport.CodeInternal, Message: "internal server error"}
	}
}

func badRequest(msg string) *transport.APIError {
	return &transport.APIError{Status: http.StatusBadRequest, Code: transport.CodeBadRequest, Message: msg}
}

// HTTPErrorHandler renders every error as the JSON error body.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	var out *transport.APIError
	if errors.As(err, &he) {
		out = fromHTTPError(he)
	} else {
		out = apiError(err)
	}
	if out.Status >= 500 {
		logging.FromContext(c.Request().Context()).Error("internal_error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(out.Status)
	} else {
		err = c.JSON(out.Status, out.Body())
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", err)
	}
}

func fromHTTPError(he *echo.HTTPError) *transport.APIError {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}
	code := statusCode(he.Code)
	switch {
	case he.Code == http.StatusUnauthorized:
		code = transport.CodeUnauthenticated
	case he.Code == http.StatusForbidden:
		code = transport.CodeForbidden
	case he.Code == http.StatusNotFound:
		code = transport.CodeNotFound
	case he.Code >= 500:
		code = transport.CodeInternal
		msg = "internal server error"
	}
	return &transport.APIError{Status: he.Code, Code: code, Message: msg}
}

// statusCode turns a status line into an error code, "Method Not Allowed"
// becoming METHOD_NOT_ALLOWED.
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return transport.CodeBadRequest
	}
	text = strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text)
	return strings.ToUpper(text)
}

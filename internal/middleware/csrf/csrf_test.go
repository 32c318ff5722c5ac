package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Skotchmaster/course_market/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/form", ok)
	e.POST("/api/auth/logout", ok)
	e.POST("/api/auth/login", ok)
	return e
}

func issueToken(t *testing.T, e *echo.Echo) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/form", nil)
	req.AddCookie(sessionCookie)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "XSRF-TOKEN" {
			assert.Equal(t, ck.Value, rec.Header().Get("X-CSRF-Token"))
			return ck
		}
	}
	t.Fatal("csrf cookie not set")
	return nil
}

var sessionCookie = &http.Cookie{Name: session.DefaultCookieName, Value: "session-token"}

func TestSafeMethodIssuesToken(t *testing.T) {
	e := newEcho(DefaultConfig())
	ck := issueToken(t, e)
	assert.NotEmpty(t, ck.Value)
	assert.False(t, ck.HttpOnly)
}

func TestUnsafeMethod(t *testing.T) {
	e := newEcho(DefaultConfig())
	ck := issueToken(t, e)

	cases := []struct {
		name   string
		header string
		origin string
		want   int
	}{
		{"matching token", ck.Value, "http://example.com", http.StatusNoContent},
		{"missing token", "", "http://example.com", http.StatusForbidden},
		{"wrong token", "nope", "http://example.com", http.StatusForbidden},
		{"foreign origin", ck.Value, "http://evil.example", http.StatusForbidden},
		{"no origin", ck.Value, "", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://example.com/api/auth/logout", nil)
			req.AddCookie(ck)
			req.AddCookie(sessionCookie)
			if tc.header != "" {
				req.Header.Set("X-CSRF-Token", tc.header)
			}
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestSkips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipPaths = []string{"/api/auth/login"}
	e := newEcho(cfg)

	serve := func(req *http.Request) int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	login := httptest.NewRequest(http.MethodPost, "http://example.com/api/auth/login", nil)
	login.AddCookie(sessionCookie)
	assert.Equal(t, http.StatusNoContent, serve(login))

	bearer := httptest.NewRequest(http.MethodPost, "http://example.com/api/auth/logout", nil)
	bearer.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	assert.Equal(t, http.StatusNoContent, serve(bearer))

	sessionless := httptest.NewRequest(http.MethodPost, "http://example.com/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, serve(sessionless))
}

func TestBearerDoesNotExemptCookieSession(t *testing.T) {
	e := newEcho(DefaultConfig())
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/auth/logout", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEnforcedWithoutSessionCookieName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SessionCookie = ""
	e := newEcho(cfg)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://example.com/api/auth/logout", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

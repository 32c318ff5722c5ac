package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const DefaultCookieName = "auth_token"

// Carrier moves the session token between server and client, as an
// HTTP-only cookie for browsers and as a bearer header for API clients.
type Carrier struct {
	CookieName string
	Path       string
	Secure     bool
	now        func() time.Time
}

func NewCarrier(cookieName string, secure bool) *Carrier {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Carrier{CookieName: cookieName, Path: "/", Secure: secure, now: time.Now}
}

func (s *Carrier) Attach(c echo.Context, token string, exp time.Time) {
	c.SetCookie(s.createCookie(token, exp))
}

func (s *Carrier) Clear(c echo.Context) {
	c.SetCookie(s.deleteCookie())
}

// Extract returns the token from the session cookie, falling back to
// an "Authorization: Bearer" header.
func (s *Carrier) Extract(r *http.Request) (string, bool) {
	if ck, err := r.Cookie(s.CookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return BearerToken(r)
}

func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (s *Carrier) createCookie(value string, exp time.Time) *http.Cookie {
	maxAge := int(exp.Sub(s.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     s.CookieName,
		Value:    value,
		Path:     s.Path,
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Carrier) deleteCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     s.Path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

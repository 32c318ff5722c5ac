package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Skotchmaster/course_market/internal/logging"
	"github.com/Skotchmaster/course_market/internal/routes"
	"github.com/Skotchmaster/course_market/internal/session"
	"github.com/Skotchmaster/course_market/internal/tokens"
	"github.com/Skotchmaster/course_market/internal/transport"
	"github.com/labstack/echo/v4"
)

const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
	RoleKey   = "role"
)

type ctxKey struct{}

// Gate decides for every request whether it may proceed, using the route
// table. API and bearer requests are rejected with JSON, page requests with
// a 303 redirect.
type Gate struct {
	Routes    *routes.Table
	Tokens    *tokens.Issuer
	Session   *session.Carrier
	LoginPath string
	APIPrefix string
}

func (g *Gate) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		l := logging.FromContext(req.Context()).With("mw", "auth_gate")
		rule := g.Routes.Classify(req.URL.Path)

		raw, hasToken := g.Session.Extract(req)

		if rule.Access == routes.Public {
			// identity is optional here, a bad token is ignored
			if hasToken {
				if claims, err := g.Tokens.Verify(raw); err == nil {
					attach(c, claims)
				}
			}
			return next(c)
		}

		if !hasToken {
			l.Debug("gate_rejected", "reason", "no token", "rule", rule.Pattern)
			return g.unauthenticated(c)
		}

		claims, err := g.Tokens.Verify(raw)
		if err != nil {
			if _, cerr := req.Cookie(g.Session.CookieName); cerr == nil {
				g.Session.Clear(c)
			}
			l.Info("gate_rejected", "reason", "invalid token", "error", err)
			return g.unauthenticated(c)
		}

		if rule.Access == routes.RoleRestricted && claims.Role != rule.Role {
			l.Info("gate_rejected", "reason", "role mismatch", "required", rule.Role, "role", claims.Role, "user_id", claims.Subject)
			return g.forbidden(c, claims.Role)
		}

		attach(c, claims)
		return next(c)
	}
}

func (g *Gate) wantsJSON(r *http.Request) bool {
	prefix := g.APIPrefix
	if prefix == "" {
		prefix = "/api/"
	}
	if strings.HasPrefix(r.URL.Path, prefix) || r.URL.Path == strings.TrimSuffix(prefix, "/") {
		return true
	}
	_, bearer := session.BearerToken(r)
	return bearer
}

func (g *Gate) unauthenticated(c echo.Context) error {
	if g.wantsJSON(c.Request()) {
		return &transport.APIError{
			Status:  http.StatusUnauthorized,
			Code:    transport.CodeUnauthenticated,
			Message: "authentication required",
		}
	}
	return c.Redirect(http.StatusSeeOther, g.LoginURL(c.Request().URL.RequestURI()))
}

func (g *Gate) forbidden(c echo.Context, role string) error {
	target := routes.DashboardPath(role)
	if g.wantsJSON(c.Request()) {
		return &transport.APIError{
			Status:   http.StatusForbidden,
			Code:     transport.CodeForbidden,
			Message:  "insufficient role",
			Redirect: target,
		}
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// LoginURL is the sign-in page carrying the path to come back to.
func (g *Gate) LoginURL(returnTo string) string {
	login := g.LoginPath
	if login == "" {
		login = "/login"
	}
	if returnTo == "" || returnTo == "/" {
		return login
	}
	return login + "?redirect=" + url.QueryEscape(returnTo)
}

func attach(c echo.Context, claims *tokens.Claims) {
	c.Set(ClaimsKey, claims)
	c.Set(UserIDKey, claims.Subject)
	c.Set(RoleKey, claims.Role)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), ctxKey{}, claims)))
}

func ClaimsFromContext(ctx context.Context) (*tokens.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*tokens.Claims)
	return claims, ok && claims != nil
}

func Claims(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*tokens.Claims)
	return claims, ok && claims != nil
}

package oauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

const (
	StateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

var ErrState = errors.New("oauth: invalid state")

type statePayload struct {
	Nonce    string
	ReturnTo string
}

// StateStore keeps the pending handshake in a signed, short-lived cookie
// so the callback can prove it answers a request this server started.
type StateStore struct {
	codec  *securecookie.SecureCookie
	Secure bool
}

// NewStateStore signs state cookies with a key derived from secret, so the
// service secret itself never signs two kinds of payload.
func NewStateStore(secret []byte, secure bool) *StateStore {
	codec := securecookie.New(deriveKey(secret, "oauth-state"), nil)
	codec.MaxAge(int(stateTTL.Seconds()))
	return &StateStore{codec: codec, Secure: secure}
}

// Begin stores a fresh nonce with the return path and returns the nonce to
// send as the provider's state parameter.
func (s *StateStore) Begin(c echo.Context, returnTo string) (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("oauth: cannot generate state")
	}
	nonce := base64.RawURLEncoding.EncodeToString(key)
	encoded, err := s.codec.Encode(StateCookieName, statePayload{Nonce: nonce, ReturnTo: returnTo})
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     StateCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		Expires:  time.Now().Add(stateTTL),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nonce, nil
}

// Finish checks the state query parameter against the cookie, clears the
// cookie and returns the saved return path.
func (s *StateStore) Finish(c echo.Context) (string, error) {
	defer c.SetCookie(&http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	ck, err := c.Cookie(StateCookieName)
	if err != nil || ck.Value == "" {
		return "", ErrState
	}
	var p statePayload
	if err := s.codec.Decode(StateCookieName, ck.Value, &p); err != nil {
		return "", ErrState
	}
	got := c.QueryParam("state")
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(p.Nonce)) != 1 {
		return "", ErrState
	}
	return p.ReturnTo, nil
}

func deriveKey(secret []byte, purpose string) []byte {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(purpose))
	return m.Sum(nil)
}

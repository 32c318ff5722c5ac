package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/course_market/internal/models"
)

const DefaultMaxAge = 30 * 24 * time.Hour

const MinSecretLength = 32

var (
	ErrInvalidToken      = errors.New("invalid session token")
	ErrMalformed         = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrSignatureMismatch = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrExpired           = fmt.Errorf("%w: expired", ErrInvalidToken)

	ErrSecretTooShort = errors.New("token secret too short")
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies stateless HS256 session tokens.
type Issuer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, maxAge time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrSecretTooShort, MinSecretLength)
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Issuer{secret: secret, maxAge: maxAge, now: time.Now}, nil
}

// WithClock replaces the time source, used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) MaxAge() time.Duration { return i.maxAge }

func (i *Issuer) Issue(subject, email, role string) (string, time.Time, error) {
	if subject == "" || !models.ValidRole(role) {
		return "", time.Time{}, fmt.Errorf("issue token: %w", ErrMalformed)
	}
	issuedAt := i.now().UTC().Truncate(time.Second)
	exp := issuedAt.Add(i.maxAge)

	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !tkn.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" || !models.ValidRole(claims.Role) {
		return nil, ErrMalformed
	}
	return &claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureMismatch
	default:
		return ErrMalformed
	}
}

package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = bcrypt.DefaultCost

var ErrInvalidCost = errors.New("bcrypt cost out of range")

// Bcrypt is the single password hasher of the service.
type Bcrypt struct {
	Cost int
}

func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}
	return &Bcrypt{Cost: cost}, nil
}

func (b *Bcrypt) Hash(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashbytes), nil
}

// Verify reports whether password matches hash. Any failure counts as a mismatch.
func (b *Bcrypt) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

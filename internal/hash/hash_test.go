package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Bcrypt {
	t.Helper()
	h, err := NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewBcrypt_Cost(t *testing.T) {
	t.Parallel()

	h, err := NewBcrypt(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, h.Cost)

	_, err = NewBcrypt(bcrypt.MinCost - 1)
	assert.ErrorIs(t, err, ErrInvalidCost)

	_, err = NewBcrypt(bcrypt.MaxCost + 1)
	assert.ErrorIs(t, err, ErrInvalidCost)
}

func TestBcrypt_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t)

	tests := []struct {
		name     string
		password string
		attempt  string
		want     bool
	}{
		{name: "correct password", password: "secret1", attempt: "secret1", want: true},
		{name: "wrong password", password: "secret1", attempt: "secret2", want: false},
		{name: "case sensitive", password: "Secret1", attempt: "secret1", want: false},
		{name: "unicode", password: "пароль🔐", attempt: "пароль🔐", want: true},
		{name: "empty attempt", password: "secret1", attempt: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hashed, err := h.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hashed)
			assert.Equal(t, tt.want, h.Verify(tt.attempt, hashed))
		})
	}
}

func TestBcrypt_UniqueSalts(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t)
	a, err := h.Hash("samePassword")
	require.NoError(t, err)
	b, err := h.Hash("samePassword")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBcrypt_Verify_FailsClosed(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t)
	for _, bad := range []string{"", "not-a-hash", "$2a$04$short"} {
		assert.False(t, h.Verify("secret1", bad), bad)
	}
}

package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcrypt_Cost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cost     int
		expected int
	}{
		{"min cost kept", bcrypt.MinCost, bcrypt.MinCost},
		{"custom cost kept", 12, 12},
		{"zero falls back to default", 0, bcrypt.DefaultCost},
		{"too high falls back to default", bcrypt.MaxCost + 1, bcrypt.DefaultCost},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NewBcrypt(tt.cost).cost)
		})
	}
}

func TestBcrypt_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewBcrypt(bcrypt.MinCost)

	hashed, err := h.Hash("abcd")
	require.NoError(t, err)
	assert.NotEqual(t, "abcd", hashed, "password is not hashed")

	assert.NoError(t, h.Compare(hashed, "abcd"))
	assert.Error(t, h.Compare(hashed, "abce"))
	assert.Error(t, h.Compare("not-a-hash", "abcd"))
}

func TestBcrypt_HashIsSalted(t *testing.T) {
	t.Parallel()

	h := NewBcrypt(bcrypt.MinCost)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

// Package hash provides password hashing backed by bcrypt.
package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes and verifies passwords with a fixed bcrypt cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a Bcrypt hasher. Costs outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (b *Bcrypt) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare returns nil when password matches hash.
// 第1引数はハッシュ化パスワード、第2引数は平文パスワード
func (b *Bcrypt) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

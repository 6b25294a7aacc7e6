// Package entity はaccountフィーチャーのドメインエンティティを定義します。
package entity

import (
	"strings"
	"time"
)

// Profile はサインアップ時に入力された氏名を保持します。
type Profile struct {
	Name    string
	Surname string
}

// Account はアプリケーションの登録ユーザーを表します。
// accountフィーチャーが永続化する唯一のレコードです。
type Account struct {
	// ID is the opaque unique identifier of the account.
	ID string

	// Email is the lowercased address used to log in.
	// It must be unique across all accounts.
	Email string

	// Password is the bcrypt hash of the account password.
	// This should never store plaintext passwords.
	Password string

	Profile Profile

	// PasswordResetToken is set while a password recovery is pending.
	PasswordResetToken *string

	// PasswordResetExpires is the instant after which PasswordResetToken stops being accepted.
	PasswordResetExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail returns the canonical form under which emails are stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetResetToken records a pending password recovery.
func (a *Account) SetResetToken(token string, expires time.Time) {
	expires = expires.UTC()
	a.PasswordResetToken = &token
	a.PasswordResetExpires = &expires
}

// ClearResetToken removes any pending password recovery.
func (a *Account) ClearResetToken() {
	a.PasswordResetToken = nil
	a.PasswordResetExpires = nil
}

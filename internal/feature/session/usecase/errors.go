// Package usecase はサーバーサイドセッションの管理を実装します。
package usecase

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// ErrSessionNotFound is returned when a session does not exist, has expired or was revoked.
	ErrSessionNotFound = errors.New("session not found")
)

// storeError wraps a repository failure. ErrSessionNotFound passes through untouched.
func storeError(op string, err error) error {
	if err == nil || errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return oops.Code("SESSION_STORE_FAILED").
		With("operation", op).
		Wrap(err)
}

// Package usecase はaccountフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

var (
	// ErrAccountNotFound is returned when no account matches the given email or ID.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned when the password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPasswordTooShort is returned when a new password is shorter than MinPasswordLength.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)

	// ErrEmailRequired is returned when a signup carries no email. It is checked after the password rules.
	ErrEmailRequired = errors.New("email is required")

	// ErrPasswordMismatch is returned when a password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrEmailTaken is returned when attempting to register an email that already has an account.
	ErrEmailTaken = errors.New("account with that email address already exists")

	// ErrTokenInvalidOrExpired is returned for reset tokens that were never issued, were already used, or have expired.
	ErrTokenInvalidOrExpired = errors.New("password reset token is invalid or has expired")

	// ErrPersistence marks failures of the backing store.
	ErrPersistence = errors.New("persistence failure")

	// ErrTransport marks failures of the notification transport.
	ErrTransport = errors.New("notification transport failure")
)

// Kind はハンドラーが反応するエラーの分類です。
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTransport
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// KindOf returns the category of err. nil and unclassified errors yield KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrInvalidCredentials):
		return KindValidation
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrTokenInvalidOrExpired):
		return KindNotFound
	case errors.Is(err, ErrEmailTaken):
		return KindConflict
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindUnknown
	}
}

// storeError wraps a repository failure. Domain sentinels returned by the
// repository pass through untouched.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if k := KindOf(err); k == KindNotFound || k == KindConflict {
		return err
	}
	return oops.Code("ACCOUNT_STORE_FAILED").
		With("operation", op).
		Wrap(fmt.Errorf("%w: %w", ErrPersistence, err))
}

// sendError wraps a notification failure.
func sendError(kind NotificationKind, err error) error {
	if err == nil {
		return nil
	}
	return oops.Code("ACCOUNT_NOTIFY_FAILED").
		With("notification", string(kind)).
		Wrap(fmt.Errorf("%w: %w", ErrTransport, err))
}

package usecase

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"account_portal/internal/feature/account/domain/entity"
)

const (
	// MinPasswordLength is the minimum number of characters accepted for a password.
	MinPasswordLength = 4
)

// AccountRepository はアカウントエンティティの永続化層を抽象化します。
// インターフェースは利用側（usecase）で定義します。
type AccountRepository interface {
	// Create persists a new account.
	// It returns ErrEmailTaken if the store's unique index on email rejects the insert.
	Create(ctx context.Context, account *entity.Account) error

	// FindByEmail retrieves the account with the given (already normalized) email.
	// It returns ErrAccountNotFound if none exists.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// FindByID retrieves the account with the given ID.
	// It returns ErrAccountNotFound if none exists.
	FindByID(ctx context.Context, id string) (*entity.Account, error)

	// FindByResetToken retrieves the account holding token whose expiry is after now.
	// It returns ErrTokenInvalidOrExpired if none matches.
	FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.Account, error)

	// SetResetToken stores a reset token and expiry on the account, replacing any previous one.
	// It returns ErrAccountNotFound if the account no longer exists.
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error

	// ConsumeResetToken replaces the password hash and clears both reset fields in one
	// atomic step, but only while the account still holds token unexpired at now.
	// It returns ErrTokenInvalidOrExpired when the condition no longer holds.
	ConsumeResetToken(ctx context.Context, id, token string, now time.Time, passwordHash string) error
}

// PasswordHasher はパスワードのハッシュ化と検証を行います。
type PasswordHasher interface {
	// Hash returns a one-way hash of password.
	Hash(password string) (string, error)

	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

// BindFunc attaches an authenticated session to account.
type BindFunc func(ctx context.Context, account *entity.Account) error

// RegisterInput はサインアップフォームの入力値です。
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	Surname         string
}

// AccountUsecase は認証情報の検証とアカウント登録を実装します。
type AccountUsecase struct {
	accounts AccountRepository
	hasher   PasswordHasher
	now      func() time.Time
}

// NewAccountUsecase はAccountUsecaseの新しいインスタンスを生成します。
func NewAccountUsecase(accounts AccountRepository, hasher PasswordHasher) *AccountUsecase {
	return &AccountUsecase{
		accounts: accounts,
		hasher:   hasher,
		now:      time.Now,
	}
}

// dummyPasswordHash is compared against when the account does not exist so that
// a missing account takes as long to reject as a wrong password.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// validateNewPassword applies the password rules shared by signup and reset.
func validateNewPassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// Authenticate returns the account whose email and password match.
// It fails with ErrAccountNotFound or ErrInvalidCredentials and never mutates the account.
func (u *AccountUsecase) Authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	account, err := u.accounts.FindByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = u.hasher.Compare(dummyPasswordHash, password)
			return nil, ErrAccountNotFound
		}
		return nil, storeError("FindByEmail", err)
	}

	if err := u.hasher.Compare(account.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// Register creates a new account after checking the password rules and email uniqueness.
// bind, when non-nil, runs once the account is persisted.
func (u *AccountUsecase) Register(ctx context.Context, in RegisterInput, bind BindFunc) (*entity.Account, error) {
	if err := validateNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	email := entity.NormalizeEmail(in.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	_, err := u.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, ErrAccountNotFound):
		return nil, storeError("FindByEmail", err)
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_HASH_FAILED").Wrap(err)
	}

	now := u.now().UTC()
	account := &entity.Account{
		ID:       uuid.NewString(),
		Email:    email,
		Password: hashed,
		Profile: entity.Profile{
			Name:    in.Name,
			Surname: in.Surname,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		return nil, storeError("Create", err)
	}
	if bind != nil {
		if err := bind(ctx, account); err != nil {
			return nil, storeError("BindSession", err)
		}
	}
	return account, nil
}

// FindByID returns the account with the given ID.
func (u *AccountUsecase) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	account, err := u.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("FindByID", err)
	}
	return account, nil
}

package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"

	"account_portal/internal/feature/account/domain/entity"
)

// Reset token configuration.
const (
	ResetTokenBytes  = 16               // 16 bytes = 32 hex chars
	ResetTokenExpiry = 10 * time.Minute // 10 minute expiry
)

// NotificationKind は送信するトランザクションメールの種類です。
type NotificationKind string

const (
	NotificationResetRequested NotificationKind = "resetRequested"
	NotificationResetCompleted NotificationKind = "resetCompleted"
)

// NotificationPayload は通知の種類ごとのデータを保持します。
type NotificationPayload struct {
	// ResetLink is set for NotificationResetRequested.
	ResetLink string
}

// Notifier はアカウント所有者へトランザクションメールを送信します。
// Retries, if any, belong to the implementation's transport.
type Notifier interface {
	Send(ctx context.Context, kind NotificationKind, account *entity.Account, payload NotificationPayload) error
}

// ResetUsecase implements the password recovery workflow:
// request a token, validate it, then complete the reset with it exactly once.
type ResetUsecase struct {
	accounts AccountRepository
	hasher   PasswordHasher
	notifier Notifier
	now      func() time.Time
	newToken func() (string, error)
}

// NewResetUsecase はResetUsecaseの新しいインスタンスを生成します。
func NewResetUsecase(accounts AccountRepository, hasher PasswordHasher, notifier Notifier) *ResetUsecase {
	return &ResetUsecase{
		accounts: accounts,
		hasher:   hasher,
		notifier: notifier,
		now:      time.Now,
		newToken: GenerateResetToken,
	}
}

// GenerateResetToken returns a hex-encoded random token of ResetTokenBytes bytes.
func GenerateResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// RequestReset issues a reset token for the account registered under email and
// emails a link built from baseURL. A persisted token is kept even if the email fails.
func (u *ResetUsecase) RequestReset(ctx context.Context, email, baseURL string) (*entity.Account, error) {
	token, err := u.newToken()
	if err != nil {
		return nil, err
	}

	account, err := u.accounts.FindByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return nil, storeError("FindByEmail", err)
	}

	expires := u.now().Add(ResetTokenExpiry)
	if err := u.accounts.SetResetToken(ctx, account.ID, token, expires); err != nil {
		return nil, storeError("SetResetToken", err)
	}
	account.SetResetToken(token, expires)

	payload := NotificationPayload{
		ResetLink: strings.TrimRight(baseURL, "/") + "/reset/" + token,
	}
	if err := u.notifier.Send(ctx, NotificationResetRequested, account, payload); err != nil {
		return nil, sendError(NotificationResetRequested, err)
	}
	return account, nil
}

// ValidateToken returns the account holding token if it has not expired.
// Unknown, used and expired tokens all fail with ErrTokenInvalidOrExpired.
func (u *ResetUsecase) ValidateToken(ctx context.Context, token string) (*entity.Account, error) {
	if token == "" {
		return nil, ErrTokenInvalidOrExpired
	}
	account, err := u.accounts.FindByResetToken(ctx, token, u.now())
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrTokenInvalidOrExpired
		}
		return nil, storeError("FindByResetToken", err)
	}
	return account, nil
}

// CompleteReset replaces the password of the account holding token and consumes the token.
// The token is validated again against the current time, and the final write only
// succeeds if no concurrent reset consumed it first.
// bind, when non-nil, runs after the write and before the confirmation email.
func (u *ResetUsecase) CompleteReset(ctx context.Context, token, password, confirm string, bind BindFunc) (*entity.Account, error) {
	account, err := u.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := validateNewPassword(password, confirm); err != nil {
		return nil, err
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_HASH_FAILED").Wrap(err)
	}

	now := u.now()
	if err := u.accounts.ConsumeResetToken(ctx, account.ID, token, now, hashed); err != nil {
		return nil, storeError("ConsumeResetToken", err)
	}
	account.Password = hashed
	account.ClearResetToken()
	account.UpdatedAt = now.UTC()

	if bind != nil {
		if err := bind(ctx, account); err != nil {
			return nil, storeError("BindSession", err)
		}
	}

	if err := u.notifier.Send(ctx, NotificationResetCompleted, account, NotificationPayload{}); err != nil {
		return nil, sendError(NotificationResetCompleted, err)
	}
	return account, nil
}

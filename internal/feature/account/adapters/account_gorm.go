// Package adapters はaccountフィーチャーのリポジトリと通知の実装を提供します。
package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"account_portal/internal/feature/account/domain/entity"
	"account_portal/internal/feature/account/usecase"
)

// accountGorm は AccountRepository のGORM実装です。
// postgres と sqlite の両ドライバーで使います。
type accountGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure accountGorm implements AccountRepository.
var _ usecase.AccountRepository = (*accountGorm)(nil)

// NewAccountGorm はaccountGormの新しいインスタンスを生成します。
func NewAccountGorm(db *gorm.DB) *accountGorm {
	return &accountGorm{db: db}
}

// isUniqueViolation reports whether err was raised by a unique index.
// gorm.ErrDuplicatedKey is only produced when the DB was opened with TranslateError.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts the account.
// A duplicate email returns usecase.ErrEmailTaken.
func (r *accountGorm) Create(ctx context.Context, a *entity.Account) error {
	model := AccountModelFromEntity(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrEmailTaken
		}
		return err
	}
	a.CreatedAt, a.UpdatedAt = model.CreatedAt, model.UpdatedAt
	return nil
}

func (r *accountGorm) first(ctx context.Context, notFound error, query string, args ...any) (*entity.Account, error) {
	var model AccountModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByEmail retrieves an account by its normalized email.
func (r *accountGorm) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.first(ctx, usecase.ErrAccountNotFound, "email = ?", email)
}

// FindByID retrieves an account by its ID.
func (r *accountGorm) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.first(ctx, usecase.ErrAccountNotFound, "id = ?", id)
}

// FindByResetToken retrieves the account holding token if it is still unexpired at now.
func (r *accountGorm) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.Account, error) {
	return r.first(ctx, usecase.ErrTokenInvalidOrExpired,
		"password_reset_token = ? AND password_reset_expires > ?", token, now.UTC())
}

// SetResetToken overwrites the reset fields of the account.
func (r *accountGorm) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&AccountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_reset_token":   token,
			"password_reset_expires": expires.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrAccountNotFound
	}
	return nil
}

// ConsumeResetToken swaps the password hash and clears the reset fields in a single
// conditional UPDATE. Zero affected rows means another request got there first or the
// token expired.
func (r *accountGorm) ConsumeResetToken(ctx context.Context, id, token string, now time.Time, passwordHash string) error {
	result := r.db.WithContext(ctx).
		Model(&AccountModel{}).
		Where("id = ? AND password_reset_token = ? AND password_reset_expires > ?", id, token, now.UTC()).
		Updates(map[string]any{
			"password":               passwordHash,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
			"updated_at":             now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrTokenInvalidOrExpired
	}
	return nil
}

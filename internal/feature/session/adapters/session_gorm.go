// Package adapters はSQLとドキュメントストアのセッションリポジトリを提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"account_portal/internal/feature/session/domain/entity"
	"account_portal/internal/feature/session/usecase"
)

// sessionGorm is a GORM implementation of the SessionRepository interface.
type sessionGorm struct {
	db  *gorm.DB
	now func() time.Time
}

// Compile-time check to ensure sessionGorm implements SessionRepository.
var _ usecase.SessionRepository = (*sessionGorm)(nil)

// NewSessionGorm はsessionGormの新しいインスタンスを生成します。
func NewSessionGorm(db *gorm.DB) *sessionGorm {
	return &sessionGorm{db: db, now: time.Now}
}

func (r *sessionGorm) utcNow() time.Time {
	return r.now().UTC()
}

// activeByAccount scopes a query to unrevoked, unexpired sessions of accountID.
func (r *sessionGorm) activeByAccount(ctx context.Context, accountID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("account_id = ? AND revoked_at IS NULL AND expires_at > ?", accountID, r.utcNow())
}

// Create persists a new session to the database.
func (r *sessionGorm) Create(ctx context.Context, session *entity.Session) error {
	model := SessionModelFromEntity(session)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update writes the account binding and flashes of a session.
func (r *sessionGorm) Update(ctx context.Context, session *entity.Session) error {
	model := SessionModelFromEntity(session)
	result := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ?", session.ID).
		Select("account_id", "flashes").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// FindByID retrieves a session by its ID.
func (r *sessionGorm) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByAccountID retrieves all active sessions for a given account.
func (r *sessionGorm) FindByAccountID(ctx context.Context, accountID string) ([]*entity.Session, error) {
	var models []SessionModel
	if err := r.activeByAccount(ctx, accountID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	sessions := make([]*entity.Session, len(models))
	for i := range models {
		sessions[i] = models[i].ToEntity()
	}
	return sessions, nil
}

// Revoke marks a session as revoked by its ID.
func (r *sessionGorm) Revoke(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ?", id).
		Update("revoked_at", r.utcNow())

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// RevokeAllByAccountID revokes all sessions for a given account.
func (r *sessionGorm) RevokeAllByAccountID(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("account_id = ? AND revoked_at IS NULL", accountID).
		Update("revoked_at", r.utcNow()).Error
}

// DeleteExpired removes all expired sessions from storage.
func (r *sessionGorm) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", r.utcNow()).
		Delete(&SessionModel{})
	return result.RowsAffected, result.Error
}

// CountByAccountID returns the number of active sessions for an account.
func (r *sessionGorm) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.activeByAccount(ctx, accountID).Count(&count).Error
	return count, err
}

// DeleteOldestByAccountID deletes the oldest active session for an account.
func (r *sessionGorm) DeleteOldestByAccountID(ctx context.Context, accountID string) error {
	var oldest SessionModel
	if err := r.activeByAccount(ctx, accountID).
		Order("created_at ASC").
		First(&oldest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // No sessions to delete
		}
		return err
	}

	return r.db.WithContext(ctx).Delete(&SessionModel{}, "id = ?", oldest.ID).Error
}

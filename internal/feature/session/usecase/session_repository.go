package usecase

import (
	"context"

	"account_portal/internal/feature/session/domain/entity"
)

// SessionRepository はセッションエンティティの永続化層を抽象化します。
// インターフェースは利用側（usecase）で定義します。
type SessionRepository interface {
	// Create persists a new session to the storage.
	Create(ctx context.Context, session *entity.Session) error

	// Update overwrites the mutable fields (account binding and flashes) of a stored session.
	// It returns ErrSessionNotFound if the session no longer exists.
	Update(ctx context.Context, session *entity.Session) error

	// FindByID retrieves a session by its ID (cookie value).
	FindByID(ctx context.Context, id string) (*entity.Session, error)

	// FindByAccountID retrieves all active sessions bound to an account.
	FindByAccountID(ctx context.Context, accountID string) ([]*entity.Session, error)

	// Revoke marks a session as revoked by setting RevokedAt.
	Revoke(ctx context.Context, id string) error

	// RevokeAllByAccountID revokes all sessions bound to an account.
	RevokeAllByAccountID(ctx context.Context, accountID string) error

	// DeleteExpired removes all expired sessions from storage.
	// Returns the number of deleted sessions.
	DeleteExpired(ctx context.Context) (int64, error)

	// CountByAccountID returns the number of active sessions bound to an account.
	CountByAccountID(ctx context.Context, accountID string) (int64, error)

	// DeleteOldestByAccountID deletes the oldest active session bound to an account.
	DeleteOldestByAccountID(ctx context.Context, accountID string) error
}

package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/samber/oops"

	"account_portal/internal/feature/session/domain/entity"
)

const (
	// SessionIDBytes is the entropy of a session id; hex encoding doubles its length.
	SessionIDBytes = 32

	// DefaultTTL is used when no lifetime is configured.
	DefaultTTL = 24 * time.Hour
)

// Meta はセッションの発行先クライアントを表します。
type Meta struct {
	UserAgent string
	IPAddress string
}

// SessionUsecase はサーバーサイドセッションの発行、紐付け、失効を行います。
type SessionUsecase struct {
	sessions      SessionRepository
	ttl           time.Duration
	maxPerAccount int
	now           func() time.Time
	newID         func() (string, error)
}

// NewSessionUsecase はSessionUsecaseの新しいインスタンスを生成します。
// maxPerAccount <= 0 means unlimited concurrent sessions per account.
func NewSessionUsecase(sessions SessionRepository, ttl time.Duration, maxPerAccount int) *SessionUsecase {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionUsecase{
		sessions:      sessions,
		ttl:           ttl,
		maxPerAccount: maxPerAccount,
		now:           time.Now,
		newID:         GenerateSessionID,
	}
}

// TTL returns the lifetime given to new sessions.
func (u *SessionUsecase) TTL() time.Duration {
	return u.ttl
}

// GenerateSessionID returns a hex-encoded random id of SessionIDBytes bytes.
func GenerateSessionID() (string, error) {
	b := make([]byte, SessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_ID_GENERATE_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

func (u *SessionUsecase) issue(accountID string, meta Meta) (*entity.Session, error) {
	id, err := u.newID()
	if err != nil {
		return nil, err
	}
	now := u.now()
	return &entity.Session{
		ID:        id,
		AccountID: accountID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.ttl),
		New:       true,
	}, nil
}

// Start returns a new anonymous session. It is not persisted until Save.
func (u *SessionUsecase) Start(meta Meta) (*entity.Session, error) {
	return u.issue("", meta)
}

// Load returns the stored session with id.
// Expired and revoked sessions are reported as ErrSessionNotFound.
func (u *SessionUsecase) Load(ctx context.Context, id string) (*entity.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	s, err := u.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("FindByID", err)
	}
	if !s.IsValidAt(u.now()) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Save persists s, creating it on first save.
func (u *SessionUsecase) Save(ctx context.Context, s *entity.Session) error {
	if s.New {
		if err := u.sessions.Create(ctx, s); err != nil {
			return storeError("Create", err)
		}
		s.New = false
		return nil
	}
	return storeError("Update", u.sessions.Update(ctx, s))
}

// revoke revokes a persisted session. Missing sessions are ignored.
func (u *SessionUsecase) revoke(ctx context.Context, s *entity.Session) error {
	if s == nil || s.New {
		return nil
	}
	if err := u.sessions.Revoke(ctx, s.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return storeError("Revoke", err)
	}
	return nil
}

// Bind authenticates the client as accountID.
// A fresh session id is always issued and current is revoked, so an id
// obtained before login is useless afterwards. Pending flashes carry over.
// When the account already holds maxPerAccount sessions the oldest are dropped.
func (u *SessionUsecase) Bind(ctx context.Context, current *entity.Session, accountID string, meta Meta) (*entity.Session, error) {
	if err := u.revoke(ctx, current); err != nil {
		return nil, err
	}

	if u.maxPerAccount > 0 {
		count, err := u.sessions.CountByAccountID(ctx, accountID)
		if err != nil {
			return nil, storeError("CountByAccountID", err)
		}
		for ; count >= int64(u.maxPerAccount); count-- {
			if err := u.sessions.DeleteOldestByAccountID(ctx, accountID); err != nil {
				return nil, storeError("DeleteOldestByAccountID", err)
			}
		}
	}

	next, err := u.issue(accountID, meta)
	if err != nil {
		return nil, err
	}
	if current != nil {
		next.Flashes = current.Flashes
	}
	if err := u.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Logout revokes current and returns a new anonymous session in its place.
func (u *SessionUsecase) Logout(ctx context.Context, current *entity.Session, meta Meta) (*entity.Session, error) {
	if err := u.revoke(ctx, current); err != nil {
		return nil, err
	}
	return u.Start(meta)
}

// RevokeAccount revokes every session bound to accountID.
func (u *SessionUsecase) RevokeAccount(ctx context.Context, accountID string) error {
	return storeError("RevokeAllByAccountID", u.sessions.RevokeAllByAccountID(ctx, accountID))
}

// Sweep deletes expired sessions and returns how many were removed.
func (u *SessionUsecase) Sweep(ctx context.Context) (int64, error) {
	n, err := u.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, storeError("DeleteExpired", err)
	}
	return n, nil
}

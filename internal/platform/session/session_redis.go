// Package session provides the Redis-backed session store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"account_portal/internal/feature/session/domain/entity"
	"account_portal/internal/feature/session/usecase"
)

// SessionRedis implements usecase.SessionRepository using Redis.
// Each session is a JSON string expiring with the session; each account has a SET of its session ids.
type SessionRedis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// Compile-time check to ensure SessionRedis implements SessionRepository.
var _ usecase.SessionRepository = (*SessionRedis)(nil)

// NewSessionRedis creates a new SessionRedis instance.
func NewSessionRedis(client *redis.Client, prefix string) *SessionRedis {
	return &SessionRedis{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// sessionKey returns the Redis key for a session.
func (r *SessionRedis) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

// accountSessionsKey returns the Redis key for an account's session set.
func (r *SessionRedis) accountSessionsKey(accountID string) string {
	return fmt.Sprintf("%s:account:%s", r.prefix, accountID)
}

// Create persists a new session to Redis.
func (r *SessionRedis) Create(ctx context.Context, session *entity.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.ID), data, ttl)
		if session.AccountID != "" {
			pipe.SAdd(ctx, r.accountSessionsKey(session.AccountID), session.ID)
		}
		return nil
	})
	return err
}

// write overwrites an existing session without touching its TTL.
func (r *SessionRedis) write(ctx context.Context, session *entity.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ok, err := r.client.SetXX(ctx, r.sessionKey(session.ID), data, redis.KeepTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// Update overwrites the account binding and flashes of a stored session.
func (r *SessionRedis) Update(ctx context.Context, session *entity.Session) error {
	stored, err := r.FindByID(ctx, session.ID)
	if err != nil {
		return err
	}
	stored.AccountID = session.AccountID
	stored.Flashes = session.Flashes
	if err := r.write(ctx, stored); err != nil {
		return err
	}
	if stored.AccountID != "" {
		return r.client.SAdd(ctx, r.accountSessionsKey(stored.AccountID), stored.ID).Err()
	}
	return nil
}

// FindByID retrieves a session by its ID.
func (r *SessionRedis) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}

	var session entity.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// FindByAccountID retrieves all active sessions for an account, oldest first.
// Ids whose key has already expired are pruned from the set.
func (r *SessionRedis) FindByAccountID(ctx context.Context, accountID string) ([]*entity.Session, error) {
	setKey := r.accountSessionsKey(accountID)
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	now := r.now()
	var sessions []*entity.Session
	for _, id := range ids {
		session, err := r.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, usecase.ErrSessionNotFound) {
				r.client.SRem(ctx, setKey, id)
				continue
			}
			return nil, err
		}
		if session.IsValidAt(now) {
			sessions = append(sessions, session)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Revoke marks a session as revoked and drops it from its account's set.
// The revoked record is kept until its original expiry.
func (r *SessionRedis) Revoke(ctx context.Context, id string) error {
	session, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	now := r.now()
	session.RevokedAt = &now
	if err := r.write(ctx, session); err != nil {
		return err
	}
	if session.AccountID != "" {
		return r.client.SRem(ctx, r.accountSessionsKey(session.AccountID), id).Err()
	}
	return nil
}

// RevokeAllByAccountID revokes all sessions for an account.
func (r *SessionRedis) RevokeAllByAccountID(ctx context.Context, accountID string) error {
	ids, err := r.client.SMembers(ctx, r.accountSessionsKey(accountID)).Result()
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := r.Revoke(ctx, id); err != nil && !errors.Is(err, usecase.ErrSessionNotFound) {
			return err
		}
	}

	return nil
}

// DeleteExpired removes expired sessions (handled by Redis TTL).
func (r *SessionRedis) DeleteExpired(ctx context.Context) (int64, error) {
	// Redis handles expiration automatically via TTL
	return 0, nil
}

// CountByAccountID returns the number of active sessions for an account.
func (r *SessionRedis) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	sessions, err := r.FindByAccountID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}

// DeleteOldestByAccountID deletes the oldest session for an account.
func (r *SessionRedis) DeleteOldestByAccountID(ctx context.Context, accountID string) error {
	sessions, err := r.FindByAccountID(ctx, accountID)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		return nil
	}
	oldest := sessions[0]

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(oldest.ID))
		pipe.SRem(ctx, r.accountSessionsKey(accountID), oldest.ID)
		return nil
	})
	return err
}

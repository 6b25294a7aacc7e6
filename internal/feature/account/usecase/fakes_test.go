package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"account_portal/internal/feature/account/domain/entity"
)

// memoryAccountRepository is an in-memory implementation of AccountRepository.
// It mirrors the adapters' semantics so workflow properties can be checked without a database.
type memoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*entity.Account

	// Err fields, when set, are returned by the matching method instead of touching state.
	CreateErr        error
	FindByEmailErr   error
	SetResetTokenErr error
	ConsumeErr       error
}

func newMemoryAccountRepository() *memoryAccountRepository {
	return &memoryAccountRepository{accounts: map[string]*entity.Account{}}
}

func clone(a *entity.Account) *entity.Account {
	c := *a
	if a.PasswordResetToken != nil {
		t := *a.PasswordResetToken
		c.PasswordResetToken = &t
	}
	if a.PasswordResetExpires != nil {
		e := *a.PasswordResetExpires
		c.PasswordResetExpires = &e
	}
	return &c
}

func (r *memoryAccountRepository) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return ErrEmailTaken
		}
	}
	r.accounts[a.ID] = clone(a)
	return nil
}

func (r *memoryAccountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FindByEmailErr != nil {
		return nil, r.FindByEmailErr
	}
	for _, a := range r.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *memoryAccountRepository) FindByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return clone(a), nil
}

func (r *memoryAccountRepository) FindByResetToken(_ context.Context, token string, now time.Time) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if hasValidResetToken(a, token, now) {
			return clone(a), nil
		}
	}
	return nil, ErrTokenInvalidOrExpired
}

func (r *memoryAccountRepository) SetResetToken(_ context.Context, id, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SetResetTokenErr != nil {
		return r.SetResetTokenErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.SetResetToken(token, expires)
	return nil
}

func (r *memoryAccountRepository) ConsumeResetToken(_ context.Context, id, token string, now time.Time, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ConsumeErr != nil {
		return r.ConsumeErr
	}
	a, ok := r.accounts[id]
	if !ok || !hasValidResetToken(a, token, now) {
		return ErrTokenInvalidOrExpired
	}
	a.Password = passwordHash
	a.ClearResetToken()
	a.UpdatedAt = now.UTC()
	return nil
}

// sentNotification records one call to recordingNotifier.Send.
type sentNotification struct {
	Kind    NotificationKind
	Email   string
	Payload NotificationPayload
}

// recordingNotifier is a Notifier that records what it was asked to send.
type recordingNotifier struct {
	mu   sync.Mutex
	Sent []sentNotification
	// SendFunc, when set, decides the returned error.
	SendFunc func(kind NotificationKind) error
}

func (n *recordingNotifier) Send(_ context.Context, kind NotificationKind, a *entity.Account, p NotificationPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, sentNotification{Kind: kind, Email: a.Email, Payload: p})
	if n.SendFunc != nil {
		return n.SendFunc(kind)
	}
	return nil
}

// testHasher is a bcrypt PasswordHasher at minimum cost to keep tests fast.
type testHasher struct{}

func (testHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(b), err
}

func (testHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// hasValidResetToken mirrors the filter the stores apply in FindByResetToken and ConsumeResetToken.
func hasValidResetToken(a *entity.Account, token string, now time.Time) bool {
	if token == "" || a.PasswordResetToken == nil || a.PasswordResetExpires == nil {
		return false
	}
	return *a.PasswordResetToken == token && a.PasswordResetExpires.After(now)
}

package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"account_portal/internal/feature/account/domain/entity"
	"account_portal/internal/feature/account/usecase"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&AccountModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

func newAccount(id, email string) *entity.Account {
	now := time.Now().UTC()
	return &entity.Account{
		ID:        id,
		Email:     email,
		Password:  "hashed_password",
		Profile:   entity.Profile{Name: "Grace", Surname: "Hopper"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func seedAccount(t *testing.T, repo *accountGorm, id, email string) *entity.Account {
	t.Helper()
	a := newAccount(id, email)
	require.NoError(t, repo.Create(context.Background(), a), "failed to seed account")
	return a
}

func TestNewAccountGorm(t *testing.T) {
	db := setupTestDB(t)

	repo := NewAccountGorm(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestAccountGorm_Create(t *testing.T) {
	t.Run("successful account creation", func(t *testing.T) {
		repo := NewAccountGorm(setupTestDB(t))

		a := newAccount("acc-1", "test@example.com")
		err := repo.Create(context.Background(), a)
		require.NoError(t, err)

		found, err := repo.FindByID(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", found.Email)
		assert.Equal(t, entity.Profile{Name: "Grace", Surname: "Hopper"}, found.Profile)
		assert.Nil(t, found.PasswordResetToken)
		assert.Nil(t, found.PasswordResetExpires)
	})

	t.Run("duplicate email error", func(t *testing.T) {
		repo := NewAccountGorm(setupTestDB(t))
		seedAccount(t, repo, "acc-1", "duplicate@example.com")

		err := repo.Create(context.Background(), newAccount("acc-2", "duplicate@example.com"))

		assert.ErrorIs(t, err, usecase.ErrEmailTaken)
	})
}

func TestAccountGorm_Find(t *testing.T) {
	repo := NewAccountGorm(setupTestDB(t))
	seedAccount(t, repo, "acc-1", "find@example.com")

	tests := []struct {
		name    string
		find    func() (*entity.Account, error)
		wantErr error
	}{
		{"by email", func() (*entity.Account, error) {
			return repo.FindByEmail(context.Background(), "find@example.com")
		}, nil},
		{"by id", func() (*entity.Account, error) {
			return repo.FindByID(context.Background(), "acc-1")
		}, nil},
		{"unknown email", func() (*entity.Account, error) {
			return repo.FindByEmail(context.Background(), "nobody@example.com")
		}, usecase.ErrAccountNotFound},
		{"unknown id", func() (*entity.Account, error) {
			return repo.FindByID(context.Background(), "acc-404")
		}, usecase.ErrAccountNotFound},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			found, err := tt.find()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "acc-1", found.ID)
		})
	}
}

func TestAccountGorm_ResetToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(10 * time.Minute)

	t.Run("set then find while unexpired", func(t *testing.T) {
		repo := NewAccountGorm(setupTestDB(t))
		seedAccount(t, repo, "acc-1", "reset@example.com")

		require.NoError(t, repo.SetResetToken(ctx, "acc-1", "tok-1", expires))

		found, err := repo.FindByResetToken(ctx, "tok-1", now.Add(5*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "acc-1", found.ID)
		require.NotNil(t, found.PasswordResetExpires)
		assert.True(t, expires.Equal(*found.PasswordResetExpires))

		_, err = repo.FindByResetToken(ctx, "tok-1", now.Add(11*time.Minute))
		assert.ErrorIs(t, err, usecase.ErrTokenInvalidOrExpired)

		_, err = repo.FindByResetToken(ctx, "other", now)
		assert.ErrorIs(t, err, usecase.ErrTokenInvalidOrExpired)
	})

	t.Run("set on missing account", func(t *testing.T) {
		repo := NewAccountGorm(setupTestDB(t))

		err := repo.SetResetToken(ctx, "ghost", "tok", expires)
		assert.ErrorIs(t, err, usecase.ErrAccountNotFound)
	})

	t.Run("consume replaces password and clears token once", func(t *testing.T) {
		repo := NewAccountGorm(setupTestDB(t))
		seedAccount(t, repo, "acc-1", "consume@example.com")
		require.NoError(t, repo.SetResetToken(ctx, "acc-1", "tok-1", expires))

		err := repo.ConsumeResetToken(ctx, "acc-1", "tok-1", now.Add(5*time.Minute), "new-hash")
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, "acc-1")
		require.NoError(t, err)
		assert.Equal(t, "new-hash", found.Password)
		assert.Nil(t, found.PasswordResetToken)
		assert.Nil(t, found.PasswordResetExpires)

		err = repo.ConsumeResetToken(ctx, "acc-1", "tok-1", now.Add(6*time.Minute), "other-hash")
		assert.ErrorIs(t, err, usecase.ErrTokenInvalidOrExpired)
	})

	t.Run("consume after expiry", func(t *testing.T) {
		repo := NewAccountGorm(setupTestDB(t))
		seedAccount(t, repo, "acc-1", "late@example.com")
		require.NoError(t, repo.SetResetToken(ctx, "acc-1", "tok-1", expires))

		err := repo.ConsumeResetToken(ctx, "acc-1", "tok-1", now.Add(10*time.Minute), "new-hash")
		assert.ErrorIs(t, err, usecase.ErrTokenInvalidOrExpired)

		found, err := repo.FindByID(ctx, "acc-1")
		require.NoError(t, err)
		assert.Equal(t, "hashed_password", found.Password)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"translated", gorm.ErrDuplicatedKey, true},
		{"postgres unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, true},
		{"postgres other", &pgconn.PgError{Code: pgerrcode.NotNullViolation}, false},
		{"sqlite message", errors.New("UNIQUE constraint failed: accounts.email"), true},
		{"unrelated", errors.New("connection reset"), false},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

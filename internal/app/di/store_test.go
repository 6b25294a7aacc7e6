package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account_portal/internal/app/config"
	"account_portal/internal/platform/db"
)

func TestMigrateSQL_ClosesDatabaseOnFailure(t *testing.T) {
	gdb, err := db.Open(db.Config{Driver: db.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	// 構造体でないモデルはマイグレーションできない
	err = migrateSQL(gdb, 42)

	assert.Error(t, err)
	assert.Error(t, sqlDB.Ping(), "database must be closed after a failed migration")
}

func TestOpenStores_SQLite(t *testing.T) {
	cfg := &config.Config{
		StoreDriver:   config.StoreSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "portal.db"),
		RunMigrations: true,
	}

	stores, err := OpenStores(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, stores.Accounts)
	assert.NotNil(t, stores.SQL)
	assert.Nil(t, stores.Mongo)
	assert.NoError(t, stores.Ping(context.Background()))

	require.NoError(t, stores.Close(context.Background()))
	assert.Error(t, stores.Ping(context.Background()))
}

package di

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	"account_portal/internal/app/config"
	accountadapters "account_portal/internal/feature/account/adapters"
	accountusecase "account_portal/internal/feature/account/usecase"
	sessionadapters "account_portal/internal/feature/session/adapters"
	"account_portal/internal/platform/db"
	platformmongo "account_portal/internal/platform/mongo"
)

// Stores holds the opened account store and the database handles behind it.
// Exactly one of Mongo and SQL is set.
type Stores struct {
	Accounts accountusecase.AccountRepository
	Mongo    *mongo.Database
	SQL      *gorm.DB

	mongoClient *mongo.Client
}

// OpenStores connects to the store selected by STORE_DRIVER and prepares its schema.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := platformmongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		mdb := client.Database(cfg.MongoDatabase)
		accounts := accountadapters.NewAccountMongo(mdb)
		if err := accounts.EnsureIndexes(ctx); err != nil {
			platformmongo.Disconnect(ctx, client)
			return nil, fmt.Errorf("ensure account indexes: %w", err)
		}
		return &Stores{Accounts: accounts, Mongo: mdb, mongoClient: client}, nil

	case config.StorePostgres, config.StoreSQLite:
		sqlDB, err := db.Open(cfg.SQLConfig())
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := migrateSQL(sqlDB, &accountadapters.AccountModel{}, &sessionadapters.SessionModel{}); err != nil {
				return nil, err
			}
			slog.Info("Database migration completed", "driver", cfg.StoreDriver)
		}
		return &Stores{Accounts: accountadapters.NewAccountGorm(sqlDB), SQL: sqlDB}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// Ping checks the opened database.
func (s *Stores) Ping(ctx context.Context) error {
	if s.mongoClient != nil {
		return s.mongoClient.Ping(ctx, nil)
	}
	sqlDB, err := s.SQL.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database connections.
func (s *Stores) Close(ctx context.Context) error {
	if s.mongoClient != nil {
		platformmongo.Disconnect(ctx, s.mongoClient)
		return nil
	}
	if s.SQL != nil {
		return closeSQL(s.SQL)
	}
	return nil
}

// migrateSQL runs the migrations and closes gdb when they fail.
func migrateSQL(gdb *gorm.DB, models ...any) error {
	if err := db.Migrate(gdb, models...); err != nil {
		if cerr := closeSQL(gdb); cerr != nil {
			slog.Warn("failed to close database after migration error", "error", cerr)
		}
		return err
	}
	return nil
}

func closeSQL(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

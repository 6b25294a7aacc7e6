package di

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	sessionadapters "account_portal/internal/feature/session/adapters"
	"account_portal/internal/feature/session/usecase"
	"account_portal/internal/platform/session"
)

// SessionKeyPrefix namespaces session keys in Redis.
const SessionKeyPrefix = "session"

// NewSessionRepository creates a SessionRepository implementation.
// Redis is preferred when available, then the MongoDB database, then the SQL database.
func NewSessionRepository(rdb *redis.Client, mdb *mongo.Database, sqlDB *gorm.DB) usecase.SessionRepository {
	switch {
	case rdb != nil:
		return session.NewSessionRedis(rdb, SessionKeyPrefix)
	case mdb != nil:
		return sessionadapters.NewSessionMongo(mdb)
	default:
		return sessionadapters.NewSessionGorm(sqlDB)
	}
}

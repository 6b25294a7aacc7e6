package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"account_portal/internal/feature/session/domain/entity"
	"account_portal/internal/feature/session/usecase"
)

// SessionsCollection はセッションドキュメントを保持するMongoDBコレクションです。
const SessionsCollection = "sessions"

type sessionDocument struct {
	ID        string         `bson:"_id"`
	AccountID string         `bson:"accountId,omitempty"`
	Flashes   []entity.Flash `bson:"flashes,omitempty"`
	UserAgent string         `bson:"userAgent"`
	IPAddress string         `bson:"ipAddress"`
	CreatedAt time.Time      `bson:"createdAt"`
	ExpiresAt time.Time      `bson:"expiresAt"`
	RevokedAt *time.Time     `bson:"revokedAt,omitempty"`
}

func (d *sessionDocument) toEntity() *entity.Session {
	return &entity.Session{
		ID:        d.ID,
		AccountID: d.AccountID,
		Flashes:   d.Flashes,
		UserAgent: d.UserAgent,
		IPAddress: d.IPAddress,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
		RevokedAt: d.RevokedAt,
	}
}

// sessionMongo is a MongoDB implementation of the SessionRepository interface.
type sessionMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Compile-time check to ensure sessionMongo implements SessionRepository.
var _ usecase.SessionRepository = (*sessionMongo)(nil)

// NewSessionMongo は db の sessions コレクション上に sessionMongo を生成します。
func NewSessionMongo(db *mongo.Database) *sessionMongo {
	return &sessionMongo{coll: db.Collection(SessionsCollection), now: time.Now}
}

// EnsureIndexes creates the account lookup index and a TTL index that lets
// MongoDB expire sessions on its own.
func (r *sessionMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "accountId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	return err
}

func (r *sessionMongo) activeFilter(accountID string) bson.D {
	return bson.D{
		{Key: "accountId", Value: accountID},
		{Key: "revokedAt", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: r.now()}}},
	}
}

// Create persists a new session.
func (r *sessionMongo) Create(ctx context.Context, s *entity.Session) error {
	_, err := r.coll.InsertOne(ctx, &sessionDocument{
		ID:        s.ID,
		AccountID: s.AccountID,
		Flashes:   s.Flashes,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		RevokedAt: s.RevokedAt,
	})
	return err
}

// Update writes the account binding and flashes of a session.
func (r *sessionMongo) Update(ctx context.Context, s *entity.Session) error {
	flashes := s.Flashes
	if flashes == nil {
		flashes = []entity.Flash{}
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: s.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "accountId", Value: s.AccountID},
			{Key: "flashes", Value: flashes},
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// FindByID retrieves a session by its ID.
func (r *sessionMongo) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var doc sessionDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

// FindByAccountID retrieves all active sessions for an account, oldest first.
func (r *sessionMongo) FindByAccountID(ctx context.Context, accountID string) ([]*entity.Session, error) {
	cursor, err := r.coll.Find(ctx, r.activeFilter(accountID),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []sessionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	sessions := make([]*entity.Session, len(docs))
	for i := range docs {
		sessions[i] = docs[i].toEntity()
	}
	return sessions, nil
}

// Revoke marks a session as revoked.
func (r *sessionMongo) Revoke(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "revokedAt", Value: r.now()}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// RevokeAllByAccountID revokes all sessions for an account.
func (r *sessionMongo) RevokeAllByAccountID(ctx context.Context, accountID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.D{
			{Key: "accountId", Value: accountID},
			{Key: "revokedAt", Value: bson.D{{Key: "$exists", Value: false}}},
		},
		bson.D{{Key: "$set", Value: bson.D{{Key: "revokedAt", Value: r.now()}}}},
	)
	return err
}

// DeleteExpired removes expired sessions the TTL monitor has not reaped yet.
func (r *sessionMongo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lt", Value: r.now()}}}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByAccountID returns the number of active sessions for an account.
func (r *sessionMongo) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	return r.coll.CountDocuments(ctx, r.activeFilter(accountID))
}

// DeleteOldestByAccountID deletes the oldest active session for an account.
func (r *sessionMongo) DeleteOldestByAccountID(ctx context.Context, accountID string) error {
	err := r.coll.FindOneAndDelete(ctx, r.activeFilter(accountID),
		options.FindOneAndDelete().SetSort(bson.D{{Key: "createdAt", Value: 1}})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

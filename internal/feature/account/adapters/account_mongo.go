package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"account_portal/internal/feature/account/domain/entity"
	"account_portal/internal/feature/account/usecase"
)

// AccountsCollection はアカウントドキュメントを保持するMongoDBコレクションです。
const AccountsCollection = "accounts"

type profileDocument struct {
	Name    string `bson:"name"`
	Surname string `bson:"surname"`
}

// accountDocument is the BSON shape of an account.
type accountDocument struct {
	ID                   string          `bson:"_id"`
	Email                string          `bson:"email"`
	Password             string          `bson:"password"`
	Profile              profileDocument `bson:"profile"`
	PasswordResetToken   *string         `bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time      `bson:"passwordResetExpires,omitempty"`
	CreatedAt            time.Time       `bson:"createdAt"`
	UpdatedAt            time.Time       `bson:"updatedAt"`
}

func (d *accountDocument) toEntity() *entity.Account {
	a := &entity.Account{
		ID:       d.ID,
		Email:    d.Email,
		Password: d.Password,
		Profile: entity.Profile{
			Name:    d.Profile.Name,
			Surname: d.Profile.Surname,
		},
		PasswordResetToken: d.PasswordResetToken,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
	if d.PasswordResetExpires != nil {
		expires := d.PasswordResetExpires.UTC()
		a.PasswordResetExpires = &expires
	}
	return a
}

func accountDocumentFromEntity(a *entity.Account) *accountDocument {
	return &accountDocument{
		ID:       a.ID,
		Email:    a.Email,
		Password: a.Password,
		Profile: profileDocument{
			Name:    a.Profile.Name,
			Surname: a.Profile.Surname,
		},
		PasswordResetToken:   a.PasswordResetToken,
		PasswordResetExpires: a.PasswordResetExpires,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

// accountMongo は AccountRepository のMongoDB実装です。
type accountMongo struct {
	coll *mongo.Collection
}

// Compile-time check to ensure accountMongo implements AccountRepository.
var _ usecase.AccountRepository = (*accountMongo)(nil)

// NewAccountMongo は db の accounts コレクション上に accountMongo を生成します。
func NewAccountMongo(db *mongo.Database) *accountMongo {
	return &accountMongo{coll: db.Collection(AccountsCollection)}
}

// EnsureIndexes creates the unique email index and the sparse reset token index.
func (r *accountMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "passwordResetToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	return err
}

// Create inserts the account document.
// A duplicate email returns usecase.ErrEmailTaken.
func (r *accountMongo) Create(ctx context.Context, a *entity.Account) error {
	if _, err := r.coll.InsertOne(ctx, accountDocumentFromEntity(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *accountMongo) findOne(ctx context.Context, filter bson.D, notFound error) (*entity.Account, error) {
	var doc accountDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

// FindByEmail retrieves an account by its normalized email.
func (r *accountMongo) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, usecase.ErrAccountNotFound)
}

// FindByID retrieves an account by its ID.
func (r *accountMongo) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}}, usecase.ErrAccountNotFound)
}

// FindByResetToken retrieves the account holding token if it is still unexpired at now.
func (r *accountMongo) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.Account, error) {
	return r.findOne(ctx, bson.D{
		{Key: "passwordResetToken", Value: token},
		{Key: "passwordResetExpires", Value: bson.D{{Key: "$gt", Value: now}}},
	}, usecase.ErrTokenInvalidOrExpired)
}

// SetResetToken overwrites the reset fields of the account.
func (r *accountMongo) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "passwordResetToken", Value: token},
			{Key: "passwordResetExpires", Value: expires.UTC()},
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrAccountNotFound
	}
	return nil
}

// ConsumeResetToken swaps the password hash and unsets the reset fields in a single
// filtered update, which MongoDB applies atomically to the matched document.
func (r *accountMongo) ConsumeResetToken(ctx context.Context, id, token string, now time.Time, passwordHash string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: id},
			{Key: "passwordResetToken", Value: token},
			{Key: "passwordResetExpires", Value: bson.D{{Key: "$gt", Value: now}}},
		},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "password", Value: passwordHash},
				{Key: "updatedAt", Value: now.UTC()},
			}},
			{Key: "$unset", Value: bson.D{
				{Key: "passwordResetToken", Value: ""},
				{Key: "passwordResetExpires", Value: ""},
			}},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrTokenInvalidOrExpired
	}
	return nil
}

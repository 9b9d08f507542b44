package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
	"github.com/adityaraj-spec/fullStack/internal/database"
	"github.com/adityaraj-spec/fullStack/internal/models"
	"github.com/adityaraj-spec/fullStack/pkg/utils"
)

const userStoreTimeout = 5 * time.Second

// IdentifierKind selects which account field an identifier lookup matches.
type IdentifierKind int

const (
	ByUsername IdentifierKind = iota
	ByEmail
	ByEither
)

// IdentifierQuery is a tagged lookup resolved to a single store query.
// Supplying either field alone must succeed; requiring both is a bug.
type IdentifierQuery struct {
	Kind     IdentifierKind
	Username string
	Email    string
}

// IdentifierFrom builds a query from whichever of username/email the request
// supplied. Returns false when both are blank.
func IdentifierFrom(username, email string) (IdentifierQuery, bool) {
	username = utils.Normalize(username)
	email = utils.Normalize(email)
	switch {
	case username != "" && email != "":
		return IdentifierQuery{Kind: ByEither, Username: username, Email: email}, true
	case username != "":
		return IdentifierQuery{Kind: ByUsername, Username: username}, true
	case email != "":
		return IdentifierQuery{Kind: ByEmail, Email: email}, true
	default:
		return IdentifierQuery{}, false
	}
}

func (q IdentifierQuery) filter() bson.M {
	switch q.Kind {
	case ByUsername:
		return bson.M{"username": q.Username}
	case ByEmail:
		return bson.M{"email": q.Email}
	default:
		return bson.M{"$or": bson.A{
			bson.M{"username": q.Username},
			bson.M{"email": q.Email},
		}}
	}
}

// UserStore is the account store consumed by the session manager and the
// handlers. The mongo implementation is below; tests use an in-memory fake.
type UserStore interface {
	FindByIdentifier(ctx context.Context, q IdentifierQuery) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (*models.User, error)
	UpdateImage(ctx context.Context, id, field, url string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	RotateRefreshToken(ctx context.Context, id, expectedOld, newToken string) (bool, error)
	ClearRefreshToken(ctx context.Context, id string) error
}

// MongoUserStore implements UserStore on the users collection.
type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore() *MongoUserStore {
	return &MongoUserStore{coll: database.DB.Collection("users")}
}

// EnsureUserIndexes creates the unique indexes on username and email. These
// are the correctness backstop when application-level duplicate checks race.
func EnsureUserIndexes(ctx context.Context) error {
	coll := database.DB.Collection("users")
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

func (s *MongoUserStore) FindByIdentifier(ctx context.Context, q IdentifierQuery) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	var user models.User
	if err := s.coll.FindOne(ctx, q.filter()).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Internal("find user by identifier", err)
	}
	return &user, nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Internal("find user by id", err)
	}
	return &user, nil
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Internal("create user", err)
	}
	return user, nil
}

func (s *MongoUserStore) UpdateProfile(ctx context.Context, id, fullName, email string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now()}
	if fullName != "" {
		set["full_name"] = fullName
	}
	if email != "" {
		set["email"] = utils.Normalize(email)
	}

	var user models.User
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Internal("update profile", err)
	}
	return &user, nil
}

func (s *MongoUserStore) UpdateImage(ctx context.Context, id, field, url string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	var user models.User
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{field: url, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Internal("update "+field, err)
	}
	return &user, nil
}

func (s *MongoUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"password": passwordHash, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperr.Internal("update password", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token unconditionally. Used on
// login, where the single-session model replaces whatever was there before.
func (s *MongoUserStore) SetRefreshToken(ctx context.Context, id, token string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"refresh_token": token, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperr.Internal("persist refresh token", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RotateRefreshToken replaces the stored refresh token only if the current
// stored value still equals expectedOld. The filter makes the update an atomic
// compare-and-swap, so of two refreshes racing with the same token exactly one
// wins; the loser sees false.
func (s *MongoUserStore) RotateRefreshToken(ctx context.Context, id, expectedOld, newToken string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, apperr.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "refresh_token": expectedOld},
		bson.M{"$set": bson.M{"refresh_token": newToken, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, apperr.Internal("rotate refresh token", err)
	}
	return res.MatchedCount == 1, nil
}

// ClearRefreshToken drops the stored refresh token on logout. The account
// itself is untouched.
func (s *MongoUserStore) ClearRefreshToken(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	defer cancel()

	_, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$unset": bson.M{"refresh_token": ""}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return apperr.Internal("clear refresh token", err)
	}
	return nil
}

// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"net/http"
	"strings"

	"social/internal/models"
	"social/internal/observability"

	"github.com/256dpi/lungo"
	"go.opentelemetry.io/otel/attribute"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// DuplicateEmailMessage is returned when signing up with a taken address.
const DuplicateEmailMessage = "There's already an account with that email!"

// UserRepository defines persistence operations for User aggregates. Every
// write replaces the whole document.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) (models.DeleteResult, error)
}

// Option configures a UserRepository.
type Option func(*userRepository)

// WithVersionCheck makes Save reject a replace when the stored version moved
// since the user was loaded. enabled is evaluated per user id.
func WithVersionCheck(enabled func(userID string) bool) Option {
	return func(r *userRepository) {
		r.versioned = enabled
	}
}

type userRepository struct {
	coll      lungo.ICollection
	versioned func(userID string) bool
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(coll lungo.ICollection, opts ...Option) UserRepository {
	r := &userRepository{
		coll:      coll,
		versioned: func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", usersCollection)()

	n, err := r.coll.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return models.NewInternalError(err)
	}
	if n > 0 {
		return models.NewAuthError(DuplicateEmailMessage, http.StatusBadRequest)
	}

	user.Init()
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return models.NewAuthError(DuplicateEmailMessage, http.StatusBadRequest)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("User", id)
	}
	user, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	user, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", email)
	}
	return user, nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	defer observability.TrackQuery("find", usersCollection)()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetLimit(1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	users[0].Init()
	return &users[0], nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	defer observability.TrackQuery("find", usersCollection)()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		users[i].Init()
	}
	return users, nil
}

// Save replaces the stored document with user and bumps its version. With
// the version check on, a document changed since load yields a ConflictError
// and nothing is written; otherwise the last writer wins.
func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("replace", usersCollection)()
	ctx, span := observability.StartSpan(ctx, "users.save",
		attribute.String("db.system", "mongodb"),
		attribute.String("user.id", user.IDHex()),
	)
	defer span.End()

	prev := user.Version
	filter := bson.M{"_id": user.ID}
	checked := r.versioned(user.IDHex())
	if checked {
		filter["version"] = prev
	}

	user.Version = prev + 1
	res, err := r.coll.ReplaceOne(ctx, filter, user)
	if err != nil {
		user.Version = prev
		observability.AggregateSaves.WithLabelValues("error").Inc()
		if isDuplicateKey(err) {
			return models.NewAuthError(DuplicateEmailMessage, http.StatusBadRequest)
		}
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		user.Version = prev
		if checked {
			observability.AggregateSaves.WithLabelValues("conflict").Inc()
			return models.NewConflictError("User", user.IDHex())
		}
		observability.AggregateSaves.WithLabelValues("error").Inc()
		return models.NewNotFoundError("User", user.IDHex())
	}

	observability.AggregateSaves.WithLabelValues("ok").Inc()
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	defer observability.TrackQuery("delete", usersCollection)()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.DeleteResult{}, models.NewNotFoundError("User", id)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return models.DeleteResult{}, models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.DeleteResult{}, models.NewNotFoundError("User", id)
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: int(res.DeletedCount)}, nil
}

// isDuplicateKey matches server duplicate key errors as well as the embedded
// engine's unique index violations.
func isDuplicateKey(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate")
}

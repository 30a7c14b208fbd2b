// Package service implements the operations behind each route. Every write
// loads the owning User, mutates the embedded document tree and saves the
// whole User back.
package service

import (
	"context"
	"log/slog"

	"social/internal/cache"
	"social/internal/middleware"
	"social/internal/models"
	"social/internal/repository"
)

// Store loads and saves User aggregates. Reads go through the cache;
// mutations always start from the database.
type Store struct {
	users repository.UserRepository
	cache *cache.Cache
}

func NewStore(users repository.UserRepository, c *cache.Cache) *Store {
	if c == nil {
		c = cache.New(nil)
	}
	return &Store{users: users, cache: c}
}

// Users exposes the repository for callers that need raw access.
func (s *Store) Users() repository.UserRepository {
	return s.users
}

// Read returns a possibly cached copy of the user for read-only use.
func (s *Store) Read(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.cache.Aside(ctx, cache.UserKey(userID), &user, cache.UserTTL, func() error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.Init()
	return &user, nil
}

// Load returns the stored user for a load-mutate-save cycle.
func (s *Store) Load(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Save replaces the stored user and drops its cache entry.
func (s *Store) Save(ctx context.Context, user *models.User) error {
	err := s.users.Save(ctx, user)
	s.cache.InvalidateUser(ctx, user.IDHex())
	if err != nil {
		middleware.Logger.WarnContext(ctx, "user save failed",
			slog.String("user", user.IDHex()),
			slog.String("error", err.Error()),
		)
	}
	return err
}

// Delete removes the user document and its cache entry.
func (s *Store) Delete(ctx context.Context, userID string) (models.DeleteResult, error) {
	res, err := s.users.Delete(ctx, userID)
	s.cache.InvalidateUser(ctx, userID)
	return res, err
}

// mutate loads userID, applies fn and saves the whole user when fn succeeds.
func mutate[T any](ctx context.Context, s *Store, userID string, fn func(u *models.User) (T, error)) (T, error) {
	var zero T
	user, err := s.Load(ctx, userID)
	if err != nil {
		return zero, err
	}
	out, err := fn(user)
	if err != nil {
		return zero, err
	}
	if err := s.Save(ctx, user); err != nil {
		return zero, err
	}
	return out, nil
}

// resolve resolves p in u and turns an unmatched id into a NotFoundError.
func resolve(u *models.User, p models.Path) (models.Target, error) {
	t, err := u.Resolve(p)
	if err != nil {
		return models.Target{}, err
	}
	if !t.Found() {
		return models.Target{}, t.NotFound()
	}
	return t, nil
}

// voteHolder resolves the parent of the votes addressed by p.
func voteHolder(u *models.User, p models.Path) (models.VoteHolder, error) {
	p.VoteID = ""
	t, err := resolve(u, p)
	if err != nil {
		return nil, err
	}
	h, ok := t.VoteHolder()
	if !ok {
		return nil, models.NewValueError(t.Kind.String() + " cannot hold votes")
	}
	return h, nil
}

// commentHolder resolves the parent of the comments addressed by p.
func commentHolder(u *models.User, p models.Path) (models.CommentHolder, error) {
	p.CommentID = ""
	p.VoteID = ""
	t, err := resolve(u, p)
	if err != nil {
		return nil, err
	}
	h, ok := t.CommentHolder()
	if !ok {
		return nil, models.NewValueError(t.Kind.String() + " cannot hold comments")
	}
	return h, nil
}

// conversation resolves the conversation addressed by p, ignoring any message id.
func conversation(u *models.User, p models.Path) (*models.Conversation, error) {
	p.MessageID = ""
	t, err := resolve(u, p)
	if err != nil {
		return nil, err
	}
	if t.Kind != models.KindConversation {
		return nil, models.NewFieldError("conversationId")
	}
	return t.Conversation, nil
}

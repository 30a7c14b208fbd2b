package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"social/internal/cache"
	"social/internal/database"
	"social/internal/mailer"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	models.PasswordCost = bcrypt.MinCost
}

// userRepoStub wraps a real repository and lets tests intercept saves.
type userRepoStub struct {
	repository.UserRepository
	mu     sync.Mutex
	saves  int
	saveFn func(ctx context.Context, u *models.User) error
}

func (s *userRepoStub) Save(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	s.saves++
	fn := s.saveFn
	s.mu.Unlock()
	if fn != nil {
		if err := fn(ctx, u); err != nil {
			return err
		}
	}
	return s.UserRepository.Save(ctx, u)
}

func (s *userRepoStub) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type senderStub struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (s *senderStub) Send(_ context.Context, email mailer.Email) (mailer.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return mailer.Receipt{}, s.err
	}
	s.sent = append(s.sent, email)
	return mailer.Receipt{Transport: "stub", Accepted: []string{email.To}}, nil
}

type publisherStub struct {
	mu     sync.Mutex
	events map[string][]notifications.Event
}

func (p *publisherStub) PublishEvent(_ context.Context, ev notifications.Event, userIDs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]notifications.Event{}
	}
	for _, id := range userIDs {
		p.events[id] = append(p.events[id], ev)
	}
	return nil
}

type fixture struct {
	repo  *userRepoStub
	store *Store
	cache *cache.Cache
	mr    *miniredis.Miniredis
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenMemory(ctx, "social-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(ctx) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &userRepoStub{UserRepository: repository.NewUserRepository(db.Users())}
	c := cache.New(rdb)
	return &fixture{repo: repo, store: NewStore(repo, c), cache: c, mr: mr}
}

func (f *fixture) seedUser(t *testing.T, email string, mutators ...func(u *models.User)) *models.User {
	t.Helper()
	u, err := models.NewUser("Jane Doe", email, "secret1", "secret1")
	require.NoError(t, err)
	u.Activated = true
	for _, m := range mutators {
		m(u)
	}
	require.NoError(t, f.repo.Create(context.Background(), u))
	return u
}

func (f *fixture) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func withPost(text string) func(u *models.User) {
	return func(u *models.User) {
		p, _ := models.NewPost(u.IDHex(), text, nil)
		u.Posts.Push(p)
	}
}

func withFile(src, tag string) func(u *models.User) {
	return func(u *models.User) {
		f, _ := models.NewPublicFile(src, "", tag)
		u.Media.Push(f)
	}
}

func ptr[T any](v T) *T { return &v }

func requireAppError(t *testing.T, err error, name string, status int) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, name, appErr.Name)
	assert.Equal(t, status, appErr.Status)
}

func TestStore_ReadIsCachedAndSaveInvalidates(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()
	u := f.seedUser(t, "cache@example.com")

	read, err := f.store.Read(ctx, u.IDHex())
	require.NoError(t, err)
	assert.Equal(t, u.Email, read.Email)
	assert.True(t, f.mr.Exists(cache.UserKey(u.IDHex())))

	loaded, err := f.store.Load(ctx, u.IDHex())
	require.NoError(t, err)
	loaded.About = "changed"
	require.NoError(t, f.store.Save(ctx, loaded))
	assert.False(t, f.mr.Exists(cache.UserKey(u.IDHex())))

	read, err = f.store.Read(ctx, u.IDHex())
	require.NoError(t, err)
	assert.Equal(t, "changed", read.About)
}

func TestStore_ReadMissingUser(t *testing.T) {
	t.Parallel()
	f := setup(t)

	_, err := f.store.Read(context.Background(), models.NewID().Hex())
	requireAppError(t, err, models.NotFoundErrorName, http.StatusNotFound)
}

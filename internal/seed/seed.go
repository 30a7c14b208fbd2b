// Package seed fills a database with fake users and their embedded content
// for development and demos.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"social/internal/middleware"
	"social/internal/models"
	"social/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

// Password is shared by every seeded account.
const Password = "password123"

var tags = []string{"travel", "food", "music", "nature walks", "city", "pets", "art", "sports"}

// Options configures the seeder.
type Options struct {
	NumUsers      int
	PostsPerUser  int
	MediaPerUser  int
	Conversations int
	ShouldClean   bool
	// Seed makes runs reproducible. Zero picks a random seed.
	Seed int64
}

// Seeder builds users in memory, links them through votes, comments and
// conversations, then stores each one.
type Seeder struct {
	users repository.UserRepository
	fake  *gofakeit.Faker
	opts  Options
}

func NewSeeder(users repository.UserRepository, opts Options) *Seeder {
	return &Seeder{users: users, fake: gofakeit.New(opts.Seed), opts: opts}
}

// ClearAll deletes every stored user and reports how many were removed.
func (s *Seeder) ClearAll(ctx context.Context) (int, error) {
	existing, err := s.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	deleted := 0
	for _, u := range existing {
		res, err := s.users.Delete(ctx, u.IDHex())
		if err != nil {
			return deleted, fmt.Errorf("delete user %s: %w", u.IDHex(), err)
		}
		deleted += res.DeletedCount
	}
	return deleted, nil
}

// Run seeds the database and returns the created users.
func (s *Seeder) Run(ctx context.Context) ([]*models.User, error) {
	if s.opts.ShouldClean {
		n, err := s.ClearAll(ctx)
		if err != nil {
			return nil, err
		}
		middleware.Logger.Info("cleared users", slog.Int("count", n))
	}

	users, err := s.buildUsers(s.opts.NumUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if err := s.addFeed(u, users); err != nil {
			return nil, err
		}
	}
	if err := s.addConversations(users, s.opts.Conversations); err != nil {
		return nil, err
	}

	for _, u := range users {
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.Email, err)
		}
	}
	middleware.Logger.Info("seeded users", slog.Int("count", len(users)))
	return users, nil
}

func (s *Seeder) buildUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		name := cleanName(s.fake.FirstName() + " " + s.fake.LastName())
		email := fmt.Sprintf("user%d@social.local", i+1)
		u, err := models.NewUser(name, email, Password, Password)
		if err != nil {
			return nil, fmt.Errorf("build user %d: %w", i+1, err)
		}
		u.Activated = true
		u.About = s.fake.Sentence(8)
		u.Image = fmt.Sprintf("https://picsum.photos/seed/%s/200/200", s.fake.UUID())
		users = append(users, u)
	}
	return users, nil
}

// cleanName keeps the characters a user name may contain.
func cleanName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || r == ' ' || r == '-' {
			return r
		}
		return -1
	}, name)
	if len([]rune(name)) > 32 {
		name = string([]rune(name)[:32])
	}
	return strings.TrimSpace(name)
}

func (s *Seeder) addFeed(u *models.User, everyone []*models.User) error {
	for k, cnt := 0, s.opts.MediaPerUser; k < cnt; k++ {
		f, err := models.NewPublicFile(
			fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.fake.UUID()),
			s.fake.Sentence(6),
			s.fake.RandomString(tags),
		)
		if err != nil {
			return err
		}
		if err := s.engage(&f.Votes, &f.Comments, everyone); err != nil {
			return err
		}
		u.Media.Push(f)
	}

	for k, cnt := 0, s.opts.PostsPerUser; k < cnt; k++ {
		p, err := models.NewPost(u.IDHex(), s.fake.Sentence(12), nil)
		if err != nil {
			return err
		}
		if err := s.engage(&p.Votes, &p.Comments, everyone); err != nil {
			return err
		}
		u.Posts.Push(p)
	}
	return nil
}

// engage adds votes and comments from random users. Each voter votes once.
func (s *Seeder) engage(votes *models.Votes, comments *models.Comments, everyone []*models.User) error {
	for _, voter := range everyone {
		if !s.fake.Bool() {
			continue
		}
		v, err := models.NewVote(voter.IDHex(), s.fake.Bool(), s.fake.RandomString(models.VoteReasons))
		if err != nil {
			return err
		}
		if err := votes.Push(v); err != nil {
			return err
		}
	}

	for k, cnt := 0, s.fake.Number(0, 3); k < cnt; k++ {
		author := everyone[s.fake.Number(0, len(everyone)-1)]
		c, err := models.NewComment(author.IDHex(), s.fake.Sentence(8), nil)
		if err != nil {
			return err
		}
		comments.Push(c)
	}
	return nil
}

// addConversations opens n two-person conversations. Both participants get
// their own copy of every message.
func (s *Seeder) addConversations(users []*models.User, n int) error {
	if len(users) < 2 {
		return nil
	}
	for k, cnt := 0, n; k < cnt; k++ {
		i := s.fake.Number(0, len(users)-1)
		j := s.fake.Number(0, len(users)-2)
		if j >= i {
			j++
		}
		from, to := users[i], users[j]
		ids := []string{from.IDHex(), to.IDHex()}

		fromConv := from.Conversations.Matching(ids)
		if fromConv == nil {
			from.Conversations.Push(models.NewConversation(ids))
			to.Conversations.Push(models.NewConversation(ids))
			fromConv = from.Conversations.Matching(ids)
		}
		toConv := to.Conversations.Matching(ids)

		for k, cnt := 0, s.fake.Number(1, 4); k < cnt; k++ {
			author := ids[s.fake.Number(0, 1)]
			m, err := models.NewMessage(author, s.fake.Sentence(6), nil)
			if err != nil {
				return err
			}
			fromConv.Messages.Push(m)
			toConv.Messages.Push(m.Copy())
		}
		toConv.HasNew = true
	}
	return nil
}

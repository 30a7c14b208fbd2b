package prerender

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"social/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listerStub struct {
	ListFunc func(ctx context.Context) ([]models.User, error)
}

func (s listerStub) List(ctx context.Context) ([]models.User, error) {
	return s.ListFunc(ctx)
}

func fixtureUsers() []models.User {
	shared := models.NewConversation([]string{"a", "b"})
	alice := models.User{ID: models.NewID(), Conversations: models.Conversations{shared}}
	bob := models.User{ID: models.NewID(), Conversations: models.Conversations{shared, models.NewConversation([]string{"b", "c"})}}
	return []models.User{alice, bob}
}

func TestIndex_WriteAndRead(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatJSON, FormatYAML} {
		format := format
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()
			users := fixtureUsers()
			ix := &Index{Dir: filepath.Join(t.TempDir(), "static"), Format: format}

			err := ix.Write(context.Background(), listerStub{ListFunc: func(context.Context) ([]models.User, error) {
				return users, nil
			}})
			require.NoError(t, err)

			assert.Equal(t, []string{users[0].IDHex(), users[1].IDHex()}, ix.UserIDs())
			assert.Len(t, ix.ConversationIDs(), 2, "shared conversations are listed once")

			_, err = os.Stat(ix.path(UsersFile))
			assert.NoError(t, err)
		})
	}
}

func TestIndex_ReadFailuresYieldEmptyLists(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ix := New(dir)

	assert.Equal(t, []string{}, ix.UserIDs())
	assert.Equal(t, []string{}, ix.ConversationIDs())

	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFile), []byte("{not json"), 0o644))
	assert.Equal(t, []string{}, ix.UserIDs())
}

func TestIndex_WriteListError(t *testing.T) {
	t.Parallel()
	ix := New(t.TempDir())
	err := ix.Write(context.Background(), listerStub{ListFunc: func(context.Context) ([]models.User, error) {
		return nil, errors.New("db down")
	}})
	assert.ErrorContains(t, err, "db down")
}

func TestIndex_Routes(t *testing.T) {
	t.Parallel()
	ix := New(t.TempDir())
	require.NoError(t, ix.Write(context.Background(), listerStub{ListFunc: func(context.Context) ([]models.User, error) {
		return fixtureUsers()[:1], nil
	}}))

	routes := ix.Routes()
	assert.Len(t, routes, 8+4+1)
	assert.Contains(t, routes, "/people/"+ix.UserIDs()[0]+"/media")
	assert.Contains(t, routes, "/conversations/"+ix.ConversationIDs()[0])
}

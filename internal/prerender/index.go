// Package prerender writes the id index files a static front end uses to
// decide which pages to prerender.
package prerender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"social/internal/middleware"
	"social/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	UsersFile         = "users.json"
	ConversationsFile = "conversations.json"
)

// Lister is the part of the user repository the index needs.
type Lister interface {
	List(ctx context.Context) ([]models.User, error)
}

// Format selects the encoding of the index files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yml"
)

// Index reads and writes the id files under Dir.
type Index struct {
	Dir    string
	Format Format
}

func New(dir string) *Index {
	return &Index{Dir: dir, Format: FormatJSON}
}

func (ix *Index) path(name string) string {
	if ix.Format == FormatYAML {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".yml"
	}
	return filepath.Join(ix.Dir, name)
}

// Write lists every user and stores the user ids and the distinct
// conversation ids.
func (ix *Index) Write(ctx context.Context, users Lister) error {
	list, err := users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	userIDs := make([]string, 0, len(list))
	var conversationIDs []string
	for _, u := range list {
		userIDs = append(userIDs, u.IDHex())
		for _, c := range u.Conversations {
			conversationIDs = append(conversationIDs, c.ID.Hex())
		}
	}
	slices.Sort(conversationIDs)
	conversationIDs = slices.Compact(conversationIDs)
	if conversationIDs == nil {
		conversationIDs = []string{}
	}

	if err := os.MkdirAll(ix.Dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := ix.writeFile(UsersFile, userIDs); err != nil {
		return err
	}
	if err := ix.writeFile(ConversationsFile, conversationIDs); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "id index written",
		slog.String("dir", ix.Dir),
		slog.Int("users", len(userIDs)),
		slog.Int("conversations", len(conversationIDs)),
	)
	return nil
}

func (ix *Index) writeFile(name string, ids []string) error {
	var (
		b   []byte
		err error
	)
	if ix.Format == FormatYAML {
		b, err = yaml.Marshal(ids)
	} else {
		b, err = json.Marshal(ids)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(ix.path(name), b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// UserIDs returns the stored user ids, or an empty list when the file is
// missing or unreadable.
func (ix *Index) UserIDs() []string {
	return ix.read(UsersFile)
}

// ConversationIDs returns the stored conversation ids, or an empty list when
// the file is missing or unreadable.
func (ix *Index) ConversationIDs() []string {
	return ix.read(ConversationsFile)
}

func (ix *Index) read(name string) []string {
	b, err := os.ReadFile(ix.path(name))
	if err != nil {
		middleware.Logger.Debug("id index unavailable", slog.String("file", name), slog.String("error", err.Error()))
		return []string{}
	}

	var ids []string
	if ix.Format == FormatYAML {
		err = yaml.Unmarshal(b, &ids)
	} else {
		err = json.Unmarshal(b, &ids)
	}
	if err != nil || ids == nil {
		return []string{}
	}
	return ids
}

// Routes returns the front-end pages to prerender for the stored ids.
func (ix *Index) Routes() []string {
	routes := []string{
		"/",
		"/home",
		"/home/about",
		"/home/media",
		"/home/posts",
		"/people",
		"/conversations",
		"/latest",
	}
	for _, id := range ix.UserIDs() {
		routes = append(routes,
			"/people/"+id,
			"/people/"+id+"/about",
			"/people/"+id+"/media",
			"/people/"+id+"/posts",
		)
	}
	for _, id := range ix.ConversationIDs() {
		routes = append(routes, "/conversations/"+id)
	}
	return routes
}

package models

import (
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrivateFile is a media attachment of a message.
type PrivateFile struct {
	ID  primitive.ObjectID `bson:"_id" json:"_id"`
	Src string             `bson:"src" json:"src"`
}

func (f PrivateFile) Key() primitive.ObjectID { return f.ID }

// NewPrivateFiles wraps each source in a PrivateFile.
func NewPrivateFiles(sources []string) []PrivateFile {
	files := make([]PrivateFile, 0, len(sources))
	for _, src := range sources {
		files = append(files, PrivateFile{ID: NewID(), Src: src})
	}
	return files
}

// Message is authored text with attachments. It is the content of posts and
// comments and the unit of conversations.
type Message struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	AuthorID   string             `bson:"authorId" json:"authorId"`
	ModifiedAt time.Time          `bson:"modifiedAt" json:"modifiedAt"`
	Media      []PrivateFile      `bson:"media" json:"media"`
	Text       string             `bson:"text" json:"text"`
}

func (m Message) Key() primitive.ObjectID { return m.ID }

func NewMessage(authorID, text string, sources []string) (Message, error) {
	if strings.TrimSpace(authorID) == "" {
		return Message{}, NewFieldError("authorId")
	}
	if strings.TrimSpace(text) == "" {
		return Message{}, NewFieldError("text")
	}
	return Message{
		ID:         NewID(),
		AuthorID:   authorID,
		ModifiedAt: Now(),
		Media:      NewPrivateFiles(sources),
		Text:       text,
	}, nil
}

// Copy returns an independent copy of m under a fresh id.
func (m Message) Copy() Message {
	c := m
	c.ID = NewID()
	c.Media = make([]PrivateFile, len(m.Media))
	for i, f := range m.Media {
		c.Media[i] = PrivateFile{ID: NewID(), Src: f.Src}
	}
	return c
}

// ContentPatch holds the optional fields of a content edit.
type ContentPatch struct {
	Text    *string
	Sources *[]string
}

// Edit applies p and refreshes ModifiedAt only when the content changed.
func (m *Message) Edit(p ContentPatch) (bool, error) {
	changed := false
	if p.Text != nil {
		if strings.TrimSpace(*p.Text) == "" {
			return false, NewValueError("'text' cannot be empty")
		}
		if *p.Text != m.Text {
			m.Text = *p.Text
			changed = true
		}
	}
	if p.Sources != nil && !slices.Equal(*p.Sources, m.sources()) {
		m.Media = NewPrivateFiles(*p.Sources)
		changed = true
	}
	if changed {
		m.ModifiedAt = Now()
	}
	return changed, nil
}

func (m Message) sources() []string {
	out := make([]string, len(m.Media))
	for i, f := range m.Media {
		out[i] = f.Src
	}
	return out
}

// Messages is a chronological message list.
type Messages []Message

func (ms *Messages) Push(m Message) {
	*ms = append(*ms, m)
}

func (ms Messages) Find(id string) *Message {
	return find(ms, id)
}

func (ms *Messages) Remove(id string) DeleteResult {
	return remove((*[]Message)(ms), id)
}

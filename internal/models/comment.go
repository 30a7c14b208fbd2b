package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a message attached to a post or a media file.
type Comment struct {
	ID      primitive.ObjectID `bson:"_id" json:"_id"`
	Message Message            `bson:"message" json:"message"`
	Votes   Votes              `bson:"votes" json:"votes"`
}

func (c Comment) Key() primitive.ObjectID { return c.ID }

func (c *Comment) VoteList() *Votes { return &c.Votes }

func NewComment(authorID, text string, sources []string) (Comment, error) {
	msg, err := NewMessage(authorID, text, sources)
	if err != nil {
		return Comment{}, err
	}
	return Comment{ID: NewID(), Message: msg, Votes: Votes{}}, nil
}

// Comments is a chronological comment list.
type Comments []Comment

func (cs *Comments) Push(c Comment) {
	*cs = append(*cs, c)
}

func (cs Comments) Find(id string) *Comment {
	return find(cs, id)
}

// Update edits the message of the comment with the given id.
func (cs Comments) Update(id string, p ContentPatch) (*Comment, error) {
	c := cs.Find(id)
	if c == nil {
		return nil, NewNotFoundError("Comment", id)
	}
	if _, err := c.Message.Edit(p); err != nil {
		return nil, err
	}
	return c, nil
}

func (cs *Comments) Remove(id string) DeleteResult {
	return remove((*[]Comment)(cs), id)
}

// VoteHolder is implemented by documents that own a vote list.
type VoteHolder interface {
	VoteList() *Votes
}

// CommentHolder is implemented by documents that own a comment list.
type CommentHolder interface {
	CommentList() *Comments
}

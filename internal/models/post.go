package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a feed entry owned by its author's User document.
type Post struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Content  Message            `bson:"content" json:"content"`
	Votes    Votes              `bson:"votes" json:"votes"`
	Comments Comments           `bson:"comments" json:"comments"`
}

func (p Post) Key() primitive.ObjectID { return p.ID }

func (p *Post) VoteList() *Votes { return &p.Votes }

func (p *Post) CommentList() *Comments { return &p.Comments }

func NewPost(authorID, text string, sources []string) (Post, error) {
	content, err := NewMessage(authorID, text, sources)
	if err != nil {
		return Post{}, err
	}
	return Post{ID: NewID(), Content: content, Votes: Votes{}, Comments: Comments{}}, nil
}

// Posts is a feed list, newest first.
type Posts []Post

func (ps *Posts) Push(p Post) {
	*ps = prepend(*ps, p)
}

func (ps Posts) Find(id string) *Post {
	return find(ps, id)
}

func (ps Posts) Update(id string, p ContentPatch) (*Post, error) {
	post := ps.Find(id)
	if post == nil {
		return nil, NewNotFoundError("Post", id)
	}
	if _, err := post.Content.Edit(p); err != nil {
		return nil, err
	}
	return post, nil
}

func (ps *Posts) Remove(id string) DeleteResult {
	return remove((*[]Post)(ps), id)
}

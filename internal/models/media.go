package models

import (
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxCaptionLength = 280
	maxTagLength     = 16
)

// PublicFile is a media file shown on a user's profile.
type PublicFile struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Src      string             `bson:"src" json:"src"`
	Caption  string             `bson:"caption" json:"caption"`
	Tag      string             `bson:"tag" json:"tag"`
	Votes    Votes              `bson:"votes" json:"votes"`
	Comments Comments           `bson:"comments" json:"comments"`
}

func (f PublicFile) Key() primitive.ObjectID { return f.ID }

func (f *PublicFile) VoteList() *Votes { return &f.Votes }

func (f *PublicFile) CommentList() *Comments { return &f.Comments }

// FilePatch holds the optional fields of a media update. An empty string is
// a valid value and clears the field.
type FilePatch struct {
	Caption *string
	Tag     *string
}

func NewPublicFile(src, caption, tag string) (PublicFile, error) {
	if strings.TrimSpace(src) == "" {
		return PublicFile{}, NewFieldError("src")
	}
	f := PublicFile{ID: NewID(), Src: src, Votes: Votes{}, Comments: Comments{}}
	if err := f.apply(FilePatch{Caption: &caption, Tag: &tag}); err != nil {
		return PublicFile{}, err
	}
	return f, nil
}

// NormalizeTag title-cases tag the way stored tags are compared.
func NormalizeTag(tag string) string {
	return StartCase(strings.TrimSpace(tag))
}

func (f *PublicFile) apply(p FilePatch) error {
	if p.Caption != nil {
		caption := strings.TrimSpace(*p.Caption)
		if utf8.RuneCountInString(caption) > maxCaptionLength {
			return NewValueError("'caption' cannot exceed 280 characters")
		}
		f.Caption = caption
	}
	if p.Tag != nil {
		tag := NormalizeTag(*p.Tag)
		if utf8.RuneCountInString(tag) > maxTagLength {
			return NewValueError("'tag' cannot exceed 16 characters")
		}
		f.Tag = tag
	}
	return nil
}

// Media is a feed list of public files, newest first.
type Media []PublicFile

func (m *Media) Push(f PublicFile) {
	*m = prepend(*m, f)
}

func (m Media) Find(id string) *PublicFile {
	return find(m, id)
}

func (m Media) Update(id string, p FilePatch) (*PublicFile, error) {
	f := m.Find(id)
	if f == nil {
		return nil, NewNotFoundError("File", id)
	}
	next := *f
	if err := next.apply(p); err != nil {
		return nil, err
	}
	*f = next
	return f, nil
}

func (m *Media) Remove(id string) DeleteResult {
	return remove((*[]PublicFile)(m), id)
}

// RemoveTagged deletes every file carrying tag, or every file when tag is
// empty. Acknowledged is true when anything was deleted.
func (m *Media) RemoveTagged(tag string) DeleteResult {
	kept := (*m)[:0]
	deleted := 0
	normalized := NormalizeTag(tag)
	for _, f := range *m {
		if tag == "" || f.Tag == normalized {
			deleted++
			continue
		}
		kept = append(kept, f)
	}
	*m = orEmpty(kept)
	return DeleteResult{Acknowledged: deleted > 0, DeletedCount: deleted}
}

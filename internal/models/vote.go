package models

import (
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoteReasons are the accepted values of Vote.Why after normalization.
var VoteReasons = []string{"Good", "True", "Right", "Bad", "False", "Wrong"}

// Vote is an up or down vote with a reason, embedded in a post, media file or comment.
type Vote struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	ModifiedAt time.Time          `bson:"modifiedAt" json:"modifiedAt"`
	VoterID    string             `bson:"voterId" json:"voterId"`
	Up         bool               `bson:"up" json:"up"`
	Why        string             `bson:"why" json:"why"`
}

func (v Vote) Key() primitive.ObjectID { return v.ID }

// VotePatch holds the optional fields of a vote update.
type VotePatch struct {
	Up  *bool
	Why *string
}

// NormalizeReason case-normalizes why and checks it against VoteReasons.
func NormalizeReason(why string) (string, error) {
	normalized := StartCase(why)
	if !slices.Contains(VoteReasons, normalized) {
		return "", NewValueError("'why' must be one of: " + strings.Join(VoteReasons, ", "))
	}
	return normalized, nil
}

func NewVote(voterID string, up bool, why string) (Vote, error) {
	if strings.TrimSpace(voterID) == "" {
		return Vote{}, NewFieldError("voterId")
	}
	reason, err := NormalizeReason(why)
	if err != nil {
		return Vote{}, err
	}
	return Vote{
		ID:         NewID(),
		ModifiedAt: Now(),
		VoterID:    voterID,
		Up:         up,
		Why:        reason,
	}, nil
}

// Votes is an owned, append-ordered vote list holding at most one vote per voter.
type Votes []Vote

// Push appends v unless its voter already voted on this parent.
func (vs *Votes) Push(v Vote) error {
	if slices.ContainsFunc(*vs, func(existing Vote) bool { return existing.VoterID == v.VoterID }) {
		return NewValueError("Cannot vote twice!")
	}
	*vs = append(*vs, v)
	return nil
}

func (vs Votes) Find(id string) *Vote {
	return find(vs, id)
}

// Update applies the set fields of p to the vote with the given id.
func (vs Votes) Update(id string, p VotePatch) (*Vote, error) {
	v := vs.Find(id)
	if v == nil {
		return nil, NewNotFoundError("Vote", id)
	}

	next := *v
	if p.Up != nil {
		next.Up = *p.Up
	}
	if p.Why != nil {
		reason, err := NormalizeReason(*p.Why)
		if err != nil {
			return nil, err
		}
		next.Why = reason
	}
	if next != *v {
		next.ModifiedAt = Now()
		*v = next
	}
	return v, nil
}

func (vs *Votes) Remove(id string) DeleteResult {
	return remove((*[]Vote)(vs), id)
}

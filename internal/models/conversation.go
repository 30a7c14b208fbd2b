package models

import (
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is one participant's copy of a direct-message thread. Every
// participant stores an independent copy; copies are matched by their
// ordered participant ids.
type Conversation struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	ParticipantIDs []string           `bson:"participantIds" json:"participantIds"`
	Messages       Messages           `bson:"messages" json:"messages"`
	HasNew         bool               `bson:"hasNew" json:"hasNew"`
}

func (c Conversation) Key() primitive.ObjectID { return c.ID }

// ConversationPatch holds the optional fields of a conversation update.
type ConversationPatch struct {
	HasNew *bool
}

func NewConversation(participantIDs []string, messages ...Message) Conversation {
	return Conversation{
		ID:             NewID(),
		ParticipantIDs: slices.Clone(participantIDs),
		Messages:       append(Messages{}, messages...),
	}
}

// Matches reports whether the conversation has exactly these participants in
// this order.
func (c *Conversation) Matches(participantIDs []string) bool {
	return slices.Equal(c.ParticipantIDs, participantIDs)
}

// PushMessage appends m and flags the conversation as having unread messages.
func (c *Conversation) PushMessage(m Message) {
	c.Messages.Push(m)
	c.HasNew = true
}

func (c *Conversation) Apply(p ConversationPatch) {
	if p.HasNew != nil {
		c.HasNew = *p.HasNew
	}
}

// Conversations is a feed list, newest first.
type Conversations []Conversation

func (cs *Conversations) Push(c Conversation) {
	*cs = prepend(*cs, c)
}

func (cs Conversations) Find(id string) *Conversation {
	return find(cs, id)
}

// Matching returns the conversation with exactly these participants, or nil.
func (cs Conversations) Matching(participantIDs []string) *Conversation {
	for i := range cs {
		if cs[i].Matches(participantIDs) {
			return &cs[i]
		}
	}
	return nil
}

func (cs Conversations) Update(id string, p ConversationPatch) (*Conversation, error) {
	c := cs.Find(id)
	if c == nil {
		return nil, NewNotFoundError("Conversation", id)
	}
	c.Apply(p)
	return c, nil
}

func (cs *Conversations) Remove(id string) DeleteResult {
	return remove((*[]Conversation)(cs), id)
}

// RemoveMany deletes every listed conversation and reports how many existed.
func (cs *Conversations) RemoveMany(ids []string) DeleteResult {
	deleted := 0
	for _, id := range ids {
		deleted += cs.Remove(id).DeletedCount
	}
	return DeleteResult{Acknowledged: deleted > 0, DeletedCount: deleted}
}

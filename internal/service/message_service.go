package service

import (
	"context"
	"slices"

	"social/internal/models"
	"social/internal/notifications"
)

// MessageService manages the messages of a conversation.
type MessageService struct {
	store         *Store
	conversations *ConversationService
}

type CreateMessageInput struct {
	Text    string
	Sources []string
}

func NewMessageService(store *Store, conversations *ConversationService) *MessageService {
	return &MessageService{store: store, conversations: conversations}
}

// Create posts a message from p.UserID into the conversation p.ConversationID
// and delivers an independent copy to every participant. Participants whose
// account no longer exists are skipped.
func (s *MessageService) Create(ctx context.Context, p models.Path, in CreateMessageInput) (*models.Message, error) {
	msg, err := models.NewMessage(p.UserID, in.Text, in.Sources)
	if err != nil {
		return nil, err
	}

	author, err := s.store.Load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	conv, err := conversation(author, p)
	if err != nil {
		return nil, err
	}
	ids := slices.Clone(conv.ParticipantIDs)

	users, err := s.conversations.loadAll(ctx, ids, true)
	if err != nil {
		return nil, err
	}
	convs, err := s.conversations.fanout(ctx, users, ids, &msg)
	if err != nil {
		return nil, err
	}
	s.conversations.notify(ctx, notifications.EventNewMessage, p.UserID, users, convs, ids, &msg)
	return &msg, nil
}

func (s *MessageService) List(ctx context.Context, p models.Path) (models.Messages, error) {
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	c, err := conversation(u, p)
	if err != nil {
		return nil, err
	}
	return c.Messages, nil
}

func (s *MessageService) Get(ctx context.Context, p models.Path) (*models.Message, error) {
	if p.MessageID == "" {
		return nil, models.NewFieldError("messageId")
	}
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	t, err := resolve(u, p)
	if err != nil {
		return nil, err
	}
	return t.Message, nil
}

// Delete removes the message from the user's copy of the conversation only.
func (s *MessageService) Delete(ctx context.Context, p models.Path) (models.DeleteResult, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (models.DeleteResult, error) {
		c, err := conversation(u, p)
		if err != nil {
			return models.DeleteResult{}, err
		}
		return c.Messages.Remove(p.MessageID), nil
	})
}

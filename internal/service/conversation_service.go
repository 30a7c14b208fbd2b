package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"social/internal/middleware"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/observability"

	"golang.org/x/sync/errgroup"
)

// EventPublisher pushes real-time events to users.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev notifications.Event, userIDs ...string) error
}

// ConversationEvent is the payload of new_message and new_conversation events.
type ConversationEvent struct {
	ConversationID string          `json:"conversationId"`
	ParticipantIDs []string        `json:"participantIds"`
	Message        *models.Message `json:"message,omitempty"`
}

// ConversationService manages conversations. Every participant owns a copy
// of a conversation inside their own User document.
type ConversationService struct {
	store  *Store
	events EventPublisher
}

type CreateConversationInput struct {
	UserID  string
	To      []string
	Text    string
	Sources []string
}

func NewConversationService(store *Store, events EventPublisher) *ConversationService {
	return &ConversationService{store: store, events: events}
}

// participantIDs puts the author first and drops blanks and repeats.
func participantIDs(authorID string, to []string) []string {
	ids := []string{authorID}
	for _, id := range to {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Create starts a conversation between the user and the recipients in To,
// or reuses the one each participant already has with exactly these
// participants. The optional first message is copied to every participant.
// The author's copy is returned.
func (s *ConversationService) Create(ctx context.Context, in CreateConversationInput) (*models.Conversation, error) {
	if len(in.To) == 0 {
		return nil, models.NewFieldError("to")
	}
	ids := participantIDs(in.UserID, in.To)

	var msg *models.Message
	if strings.TrimSpace(in.Text) != "" {
		m, err := models.NewMessage(in.UserID, in.Text, in.Sources)
		if err != nil {
			return nil, err
		}
		msg = &m
	}

	users, err := s.loadAll(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	convs, err := s.fanout(ctx, users, ids, msg)
	if err != nil {
		return nil, err
	}

	event := notifications.EventNewConversation
	if msg != nil {
		event = notifications.EventNewMessage
	}
	s.notify(ctx, event, in.UserID, users, convs, ids, msg)

	out := convs[0]
	return &out, nil
}

// loadAll loads every participant concurrently. Missing users fail the call
// unless skipMissing is set, in which case they are left out.
func (s *ConversationService) loadAll(ctx context.Context, ids []string, skipMissing bool) ([]*models.User, error) {
	users := make([]*models.User, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			u, err := s.store.Load(ctx, id)
			if err != nil {
				var appErr *models.AppError
				if skipMissing && errors.As(err, &appErr) && appErr.Name == models.NotFoundErrorName {
					middleware.Logger.WarnContext(ctx, "conversation participant not found", slog.String("user", id))
					observability.FanoutDeliveries.WithLabelValues("missing").Inc()
					return nil
				}
				return err
			}
			users[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(users, func(u *models.User) bool { return u == nil }), nil
}

// fanout delivers msg to every user's conversation matching ids, creating the
// conversation where it does not exist, and saves each user independently.
// Saves run concurrently in no particular order. A failed save does not undo
// the others; the first error is returned. convs[i] is users[i]'s copy.
func (s *ConversationService) fanout(ctx context.Context, users []*models.User, ids []string, msg *models.Message) ([]models.Conversation, error) {
	convs := make([]models.Conversation, len(users))
	var g errgroup.Group
	for i, u := range users {
		i, u := i, u
		var delivered *models.Message
		if msg != nil {
			m := *msg
			if u.IDHex() != msg.AuthorID {
				m = msg.Copy()
			}
			delivered = &m
		}

		g.Go(func() error {
			if c := u.Conversations.Matching(ids); c != nil {
				if delivered != nil {
					c.PushMessage(*delivered)
				}
				convs[i] = *c
			} else {
				var msgs []models.Message
				if delivered != nil {
					msgs = append(msgs, *delivered)
				}
				c := models.NewConversation(ids, msgs...)
				u.Conversations.Push(c)
				convs[i] = c
			}

			if err := s.store.Save(ctx, u); err != nil {
				observability.FanoutDeliveries.WithLabelValues("error").Inc()
				return err
			}
			observability.FanoutDeliveries.WithLabelValues("ok").Inc()
			return nil
		})
	}
	return convs, g.Wait()
}

// notify tells every participant except authorID about their copy. Each
// event carries the message as delivered into that participant's copy.
func (s *ConversationService) notify(ctx context.Context, eventType, authorID string, users []*models.User, convs []models.Conversation, ids []string, msg *models.Message) {
	if s.events == nil {
		return
	}
	for i, u := range users {
		if u.IDHex() == authorID {
			continue
		}
		payload := ConversationEvent{
			ConversationID: convs[i].ID.Hex(),
			ParticipantIDs: ids,
		}
		if msg != nil {
			if n := len(convs[i].Messages); n > 0 {
				delivered := convs[i].Messages[n-1]
				payload.Message = &delivered
			}
		}
		ev := notifications.Event{Type: eventType, Payload: payload}
		if err := s.events.PublishEvent(ctx, ev, u.IDHex()); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish conversation event",
				slog.String("user", u.IDHex()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *ConversationService) List(ctx context.Context, userID string) (models.Conversations, error) {
	u, err := s.store.Read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Conversations, nil
}

func (s *ConversationService) Get(ctx context.Context, p models.Path) (*models.Conversation, error) {
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return conversation(u, p)
}

func (s *ConversationService) Update(ctx context.Context, p models.Path, patch models.ConversationPatch) (*models.Conversation, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (*models.Conversation, error) {
		c, err := u.Conversations.Update(p.ConversationID, patch)
		if err != nil {
			return nil, err
		}
		out := *c
		return &out, nil
	})
}

// Delete removes the user's copy only; other participants keep theirs.
func (s *ConversationService) Delete(ctx context.Context, p models.Path) (models.DeleteResult, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (models.DeleteResult, error) {
		return u.Conversations.Remove(p.ConversationID), nil
	})
}

func (s *ConversationService) DeleteMany(ctx context.Context, userID string, ids []string) (models.DeleteResult, error) {
	if len(ids) == 0 {
		return models.DeleteResult{}, models.NewFieldError("id")
	}
	return mutate(ctx, s.store, userID, func(u *models.User) (models.DeleteResult, error) {
		return u.Conversations.RemoveMany(ids), nil
	})
}

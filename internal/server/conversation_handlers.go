package server

import (
	"social/internal/models"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

type conversationRequest struct {
	// To lists the recipient user ids, comma separated.
	To      string `json:"to" form:"to" validate:"required"`
	Text    string `json:"text" form:"text"`
	Sources string `json:"sources" form:"sources"`
}

type conversationPatchRequest struct {
	HasNew *bool `json:"hasNew" form:"hasNew"`
}

type messageRequest struct {
	Text    string `json:"text" form:"text" validate:"required"`
	Sources string `json:"sources" form:"sources"`
}

// PostConversation handles POST /users/:userId/conversations
func (s *Server) PostConversation(c *fiber.Ctx) error {
	var req conversationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	conv, err := s.conversationService.Create(c.UserContext(), service.CreateConversationInput{
		UserID:  c.Params("userId"),
		To:      models.SplitList(req.To, ","),
		Text:    req.Text,
		Sources: splitSources(req.Sources),
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "conversation", conv)
}

// GetConversations handles GET /users/:userId/conversations
func (s *Server) GetConversations(c *fiber.Ctx) error {
	convs, err := s.conversationService.List(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return sendList(c, "conversations", convs, plainPipeline, directives(c))
}

// GetConversation handles GET /users/:userId/conversations/:conversationId
func (s *Server) GetConversation(c *fiber.Ctx) error {
	conv, err := s.conversationService.Get(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "conversation", conv)
}

// PatchConversation handles PATCH /users/:userId/conversations/:conversationId
func (s *Server) PatchConversation(c *fiber.Ctx) error {
	var req conversationPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	conv, err := s.conversationService.Update(c.UserContext(), pathFrom(c), models.ConversationPatch{
		HasNew: req.HasNew,
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "conversation", conv)
}

// DeleteConversations handles DELETE /users/:userId/conversations?id=a,b
func (s *Server) DeleteConversations(c *fiber.Ctx) error {
	res, err := s.conversationService.DeleteMany(c.UserContext(), c.Params("userId"), directives(c).IDs)
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

// DeleteConversation handles DELETE /users/:userId/conversations/:conversationId
func (s *Server) DeleteConversation(c *fiber.Ctx) error {
	res, err := s.conversationService.Delete(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

// PostMessage handles POST .../conversations/:conversationId/messages
func (s *Server) PostMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	msg, err := s.messageService.Create(c.UserContext(), pathFrom(c), service.CreateMessageInput{
		Text:    req.Text,
		Sources: splitSources(req.Sources),
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "message", msg)
}

// GetMessages handles GET .../conversations/:conversationId/messages
func (s *Server) GetMessages(c *fiber.Ctx) error {
	messages, err := s.messageService.List(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendList(c, "messages", messages, plainPipeline, directives(c))
}

// GetMessage handles GET .../messages/:messageId
func (s *Server) GetMessage(c *fiber.Ctx) error {
	msg, err := s.messageService.Get(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "message", msg)
}

// DeleteMessage handles DELETE .../messages/:messageId
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	res, err := s.messageService.Delete(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

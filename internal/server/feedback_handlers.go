package server

import (
	"social/internal/models"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Votes and comments hang off posts, media files and comments. The route
// ids select the parent.

type voteRequest struct {
	VoterID string `json:"voterId" form:"voterId"`
	Up      *bool  `json:"up" form:"up" validate:"required"`
	Why     string `json:"why" form:"why" validate:"required"`
}

type votePatchRequest struct {
	Up  *bool   `json:"up" form:"up"`
	Why *string `json:"why" form:"why"`
}

// PostVote handles POST .../votes
func (s *Server) PostVote(c *fiber.Ctx) error {
	var req voteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	vote, err := s.voteService.Create(c.UserContext(), pathFrom(c), service.CreateVoteInput{
		VoterID: orCaller(c, req.VoterID),
		Up:      req.Up,
		Why:     req.Why,
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusCreated, "vote", vote)
}

// GetVotes handles GET .../votes
func (s *Server) GetVotes(c *fiber.Ctx) error {
	votes, err := s.voteService.List(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendList(c, "votes", votes, plainPipeline, directives(c))
}

// GetVote handles GET .../votes/:voteId
func (s *Server) GetVote(c *fiber.Ctx) error {
	vote, err := s.voteService.Get(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "vote", vote)
}

// PatchVote handles PATCH .../votes/:voteId
func (s *Server) PatchVote(c *fiber.Ctx) error {
	var req votePatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	vote, err := s.voteService.Update(c.UserContext(), pathFrom(c), models.VotePatch{
		Up:  req.Up,
		Why: req.Why,
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "vote", vote)
}

// DeleteVote handles DELETE .../votes/:voteId
func (s *Server) DeleteVote(c *fiber.Ctx) error {
	res, err := s.voteService.Delete(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

// PostComment handles POST .../comments
func (s *Server) PostComment(c *fiber.Ctx) error {
	var req contentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := s.commentService.Create(c.UserContext(), pathFrom(c), service.CreateCommentInput{
		AuthorID: orCaller(c, req.AuthorID),
		Text:     req.Text,
		Sources:  splitSources(req.Sources),
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusCreated, "comment", comment)
}

// GetComments handles GET .../comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.commentService.List(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendList(c, "comments", comments, plainPipeline, directives(c))
}

// GetComment handles GET .../comments/:commentId
func (s *Server) GetComment(c *fiber.Ctx) error {
	comment, err := s.commentService.Get(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "comment", comment)
}

// PatchComment handles PATCH .../comments/:commentId
func (s *Server) PatchComment(c *fiber.Ctx) error {
	var req contentPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := s.commentService.Update(c.UserContext(), pathFrom(c), req.patch())
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "comment", comment)
}

// DeleteComment handles DELETE .../comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	res, err := s.commentService.Delete(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

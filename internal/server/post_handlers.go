package server

import (
	"social/internal/models"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// contentRequest is the body of a new post or comment. authorId defaults to
// the signed-in user.
type contentRequest struct {
	AuthorID string `json:"authorId" form:"authorId"`
	Text     string `json:"text" form:"text" validate:"required"`
	// Sources is "&" separated.
	Sources string `json:"sources" form:"sources"`
}

type contentPatchRequest struct {
	Text    *string `json:"text" form:"text"`
	Sources *string `json:"sources" form:"sources"`
}

func (r contentPatchRequest) patch() models.ContentPatch {
	return models.ContentPatch{Text: r.Text, Sources: splitSourcesPtr(r.Sources)}
}

// PostPost handles POST /users/:userId/posts
func (s *Server) PostPost(c *fiber.Ctx) error {
	var req contentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		UserID:   c.Params("userId"),
		AuthorID: orCaller(c, req.AuthorID),
		Text:     req.Text,
		Sources:  splitSources(req.Sources),
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "post", post)
}

// GetPosts handles GET /users/:userId/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.List(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return sendList(c, "posts", posts, postPipeline, directives(c))
}

// GetPost handles GET /users/:userId/posts/:postId
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.Get(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "post", post)
}

// PatchPost handles PATCH /users/:userId/posts/:postId
func (s *Server) PatchPost(c *fiber.Ctx) error {
	var req contentPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := s.postService.Update(c.UserContext(), pathFrom(c), req.patch())
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "post", post)
}

// DeletePost handles DELETE /users/:userId/posts/:postId
func (s *Server) DeletePost(c *fiber.Ctx) error {
	res, err := s.postService.Delete(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

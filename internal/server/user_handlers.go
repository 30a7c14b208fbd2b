package server

import (
	"social/internal/models"

	"github.com/gofiber/fiber/v2"
)

type userPatchRequest struct {
	Name          *string `json:"name" form:"name"`
	Email         *string `json:"email" form:"email"`
	Password      *string `json:"password" form:"password"`
	PasswordAgain *string `json:"passwordAgain" form:"passwordAgain"`
	Image         *string `json:"image" form:"image"`
	About         *string `json:"about" form:"about" validate:"omitempty,max=280"`
	// Watchlist is comma separated.
	Watchlist *string `json:"watchlist" form:"watchlist"`
}

func (r userPatchRequest) patch() models.UserPatch {
	p := models.UserPatch{
		Name:          r.Name,
		Email:         r.Email,
		Password:      r.Password,
		PasswordAgain: r.PasswordAgain,
		Image:         r.Image,
		About:         r.About,
	}
	if r.Watchlist != nil {
		list := models.SplitList(*r.Watchlist, ",")
		p.Watchlist = &list
	}
	return p
}

// GetUsers handles GET /users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	users, err := s.userService.List(c.UserContext())
	if err != nil {
		return err
	}
	return sendList(c, "users", users, plainPipeline, directives(c))
}

// GetUser handles GET /users/:userId
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.userService.Get(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "user", user)
}

// PatchUser handles PATCH /users/:userId
func (s *Server) PatchUser(c *fiber.Ctx) error {
	var req userPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := s.userService.Update(c.UserContext(), c.Params("userId"), req.patch())
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "user", user)
}

// DeleteUser handles DELETE /users/:userId
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	res, err := s.userService.Delete(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

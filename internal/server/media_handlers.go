package server

import (
	"social/internal/models"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

type fileRequest struct {
	Src     string `json:"src" form:"src" validate:"required"`
	Caption string `json:"caption" form:"caption" validate:"max=280"`
	Tag     string `json:"tag" form:"tag"`
}

type filePatchRequest struct {
	Caption *string `json:"caption" form:"caption"`
	Tag     *string `json:"tag" form:"tag"`
}

// PostFile handles POST /users/:userId/media
func (s *Server) PostFile(c *fiber.Ctx) error {
	var req fileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	file, err := s.mediaService.Create(c.UserContext(), service.CreateFileInput{
		UserID:  c.Params("userId"),
		Src:     req.Src,
		Caption: req.Caption,
		Tag:     req.Tag,
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "file", file)
}

// GetFiles handles GET /users/:userId/media. A tag term matches after the
// same normalization stored tags get.
func (s *Server) GetFiles(c *fiber.Ctx) error {
	media, err := s.mediaService.List(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}

	d := directives(c)
	if tag, ok := d.Filters["tag"]; ok {
		d.Filters["tag"] = models.NormalizeTag(tag)
	}
	return sendList(c, "media", media, mediaPipeline, d)
}

// GetFile handles GET /users/:userId/media/:fileId
func (s *Server) GetFile(c *fiber.Ctx) error {
	file, err := s.mediaService.Get(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "file", file)
}

// PatchFile handles PATCH /users/:userId/media/:fileId
func (s *Server) PatchFile(c *fiber.Ctx) error {
	var req filePatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	file, err := s.mediaService.Update(c.UserContext(), pathFrom(c), models.FilePatch{
		Caption: req.Caption,
		Tag:     req.Tag,
	})
	if err != nil {
		return err
	}
	return sendOne(c, fiber.StatusOK, "file", file)
}

// DeleteFiles handles DELETE /users/:userId/media?tag=X
func (s *Server) DeleteFiles(c *fiber.Ctx) error {
	res, err := s.mediaService.DeleteTagged(c.UserContext(), c.Params("userId"), c.Query("tag"))
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

// DeleteFile handles DELETE /users/:userId/media/:fileId
func (s *Server) DeleteFile(c *fiber.Ctx) error {
	res, err := s.mediaService.Delete(c.UserContext(), pathFrom(c))
	if err != nil {
		return err
	}
	return sendDeleted(c, res)
}

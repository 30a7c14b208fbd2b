package service

import (
	"context"

	"social/internal/models"
)

// CommentService manages comments on posts and media files.
type CommentService struct {
	store *Store
}

type CreateCommentInput struct {
	AuthorID string
	Text     string
	Sources  []string
}

func NewCommentService(store *Store) *CommentService {
	return &CommentService{store: store}
}

func (s *CommentService) Create(ctx context.Context, p models.Path, in CreateCommentInput) (*models.Comment, error) {
	comment, err := models.NewComment(in.AuthorID, in.Text, in.Sources)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (*models.Comment, error) {
		h, err := commentHolder(u, p)
		if err != nil {
			return nil, err
		}
		h.CommentList().Push(comment)
		return &comment, nil
	})
}

func (s *CommentService) List(ctx context.Context, p models.Path) (models.Comments, error) {
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	h, err := commentHolder(u, p)
	if err != nil {
		return nil, err
	}
	return *h.CommentList(), nil
}

func (s *CommentService) Get(ctx context.Context, p models.Path) (*models.Comment, error) {
	if p.CommentID == "" {
		return nil, models.NewFieldError("commentId")
	}
	p.VoteID = ""
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	t, err := resolve(u, p)
	if err != nil {
		return nil, err
	}
	return t.Comment, nil
}

func (s *CommentService) Update(ctx context.Context, p models.Path, patch models.ContentPatch) (*models.Comment, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (*models.Comment, error) {
		h, err := commentHolder(u, p)
		if err != nil {
			return nil, err
		}
		c, err := h.CommentList().Update(p.CommentID, patch)
		if err != nil {
			return nil, err
		}
		out := *c
		return &out, nil
	})
}

func (s *CommentService) Delete(ctx context.Context, p models.Path) (models.DeleteResult, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (models.DeleteResult, error) {
		h, err := commentHolder(u, p)
		if err != nil {
			return models.DeleteResult{}, err
		}
		return h.CommentList().Remove(p.CommentID), nil
	})
}

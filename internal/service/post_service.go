package service

import (
	"context"

	"social/internal/models"
)

// PostService manages a user's posts.
type PostService struct {
	store *Store
}

type CreatePostInput struct {
	UserID   string
	AuthorID string
	Text     string
	Sources  []string
}

func NewPostService(store *Store) *PostService {
	return &PostService{store: store}
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	post, err := models.NewPost(in.AuthorID, in.Text, in.Sources)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s.store, in.UserID, func(u *models.User) (*models.Post, error) {
		u.Posts.Push(post)
		return &post, nil
	})
}

func (s *PostService) List(ctx context.Context, userID string) (models.Posts, error) {
	u, err := s.store.Read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Posts, nil
}

func (s *PostService) Get(ctx context.Context, p models.Path) (*models.Post, error) {
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	post := u.Posts.Find(p.PostID)
	if post == nil {
		return nil, models.NewNotFoundError("Post", p.PostID)
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, p models.Path, patch models.ContentPatch) (*models.Post, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (*models.Post, error) {
		post, err := u.Posts.Update(p.PostID, patch)
		if err != nil {
			return nil, err
		}
		out := *post
		return &out, nil
	})
}

func (s *PostService) Delete(ctx context.Context, p models.Path) (models.DeleteResult, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (models.DeleteResult, error) {
		return u.Posts.Remove(p.PostID), nil
	})
}

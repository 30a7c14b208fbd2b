package service

import (
	"context"

	"social/internal/models"
)

// MediaService manages a user's public files.
type MediaService struct {
	store *Store
}

type CreateFileInput struct {
	UserID  string
	Src     string
	Caption string
	Tag     string
}

func NewMediaService(store *Store) *MediaService {
	return &MediaService{store: store}
}

func (s *MediaService) Create(ctx context.Context, in CreateFileInput) (*models.PublicFile, error) {
	file, err := models.NewPublicFile(in.Src, in.Caption, in.Tag)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s.store, in.UserID, func(u *models.User) (*models.PublicFile, error) {
		u.Media.Push(file)
		return &file, nil
	})
}

func (s *MediaService) List(ctx context.Context, userID string) (models.Media, error) {
	u, err := s.store.Read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Media, nil
}

func (s *MediaService) Get(ctx context.Context, p models.Path) (*models.PublicFile, error) {
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	file := u.Media.Find(p.FileID)
	if file == nil {
		return nil, models.NewNotFoundError("File", p.FileID)
	}
	return file, nil
}

func (s *MediaService) Update(ctx context.Context, p models.Path, patch models.FilePatch) (*models.PublicFile, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (*models.PublicFile, error) {
		file, err := u.Media.Update(p.FileID, patch)
		if err != nil {
			return nil, err
		}
		out := *file
		return &out, nil
	})
}

func (s *MediaService) Delete(ctx context.Context, p models.Path) (models.DeleteResult, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (models.DeleteResult, error) {
		return u.Media.Remove(p.FileID), nil
	})
}

// DeleteTagged removes every file carrying tag, or all files when tag is empty.
func (s *MediaService) DeleteTagged(ctx context.Context, userID, tag string) (models.DeleteResult, error) {
	return mutate(ctx, s.store, userID, func(u *models.User) (models.DeleteResult, error) {
		return u.Media.RemoveTagged(tag), nil
	})
}

package service

import (
	"context"
	"errors"
	"net/http"

	"social/internal/models"
	"social/internal/repository"
)

// UserService manages user profiles.
type UserService struct {
	store *Store
}

func NewUserService(store *Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.Users().List(ctx)
}

// Get returns the user, served from cache when possible.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.store.Read(ctx, userID)
}

// Update applies the set fields of patch. Changing the password invalidates
// tokens issued before the change.
func (s *UserService) Update(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	return mutate(ctx, s.store, userID, func(u *models.User) (*models.User, error) {
		if patch.Email != nil {
			if err := s.checkEmailFree(ctx, u, *patch.Email); err != nil {
				return nil, err
			}
		}
		if err := u.Apply(patch); err != nil {
			return nil, err
		}
		return u, nil
	})
}

func (s *UserService) checkEmailFree(ctx context.Context, u *models.User, email string) error {
	owner, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Name == models.NotFoundErrorName {
			return nil
		}
		return err
	}
	if owner.ID != u.ID {
		return models.NewAuthError(repository.DuplicateEmailMessage, http.StatusBadRequest)
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, userID string) (models.DeleteResult, error) {
	return s.store.Delete(ctx, userID)
}

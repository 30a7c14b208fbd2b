package service

import (
	"context"

	"social/internal/models"
)

// VoteService manages votes on posts, media files and their comments.
type VoteService struct {
	store *Store
}

type CreateVoteInput struct {
	VoterID string
	Up      *bool
	Why     string
}

func NewVoteService(store *Store) *VoteService {
	return &VoteService{store: store}
}

// Create adds a vote to the parent addressed by p. A voter may vote once per parent.
func (s *VoteService) Create(ctx context.Context, p models.Path, in CreateVoteInput) (*models.Vote, error) {
	if in.Up == nil {
		return nil, models.NewFieldError("up")
	}
	vote, err := models.NewVote(in.VoterID, *in.Up, in.Why)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (*models.Vote, error) {
		h, err := voteHolder(u, p)
		if err != nil {
			return nil, err
		}
		if err := h.VoteList().Push(vote); err != nil {
			return nil, err
		}
		return &vote, nil
	})
}

func (s *VoteService) List(ctx context.Context, p models.Path) (models.Votes, error) {
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	h, err := voteHolder(u, p)
	if err != nil {
		return nil, err
	}
	return *h.VoteList(), nil
}

func (s *VoteService) Get(ctx context.Context, p models.Path) (*models.Vote, error) {
	if p.VoteID == "" {
		return nil, models.NewFieldError("voteId")
	}
	u, err := s.store.Read(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	t, err := resolve(u, p)
	if err != nil {
		return nil, err
	}
	return t.Vote, nil
}

func (s *VoteService) Update(ctx context.Context, p models.Path, patch models.VotePatch) (*models.Vote, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (*models.Vote, error) {
		h, err := voteHolder(u, p)
		if err != nil {
			return nil, err
		}
		v, err := h.VoteList().Update(p.VoteID, patch)
		if err != nil {
			return nil, err
		}
		out := *v
		return &out, nil
	})
}

// Delete removes the vote p.VoteID. An unknown id is reported, not rejected.
func (s *VoteService) Delete(ctx context.Context, p models.Path) (models.DeleteResult, error) {
	return mutate(ctx, s.store, p.UserID, func(u *models.User) (models.DeleteResult, error) {
		h, err := voteHolder(u, p)
		if err != nil {
			return models.DeleteResult{}, err
		}
		return h.VoteList().Remove(p.VoteID), nil
	})
}

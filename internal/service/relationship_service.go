package service

import (
	"context"
	"errors"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.uber.org/zap"
)

// RelationshipService manages the follow graph.
type RelationshipService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

func NewRelationshipService(follows repository.FollowRepository, users repository.UserRepository) *RelationshipService {
	return &RelationshipService{follows: follows, users: users}
}

// Follow creates the edge userID -> authorID. The store's constraints are
// authoritative; the existence check only saves a failed insert.
func (s *RelationshipService) Follow(ctx context.Context, userID, authorID uint) error {
	if userID == authorID {
		return models.ErrSelfFollow
	}
	exists, err := s.follows.Exists(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrDuplicateFollow
	}
	if err := s.follows.Create(ctx, userID, authorID); err != nil {
		return err
	}
	observability.FollowEvents.WithLabelValues("follow").Inc()
	middleware.LoggerFromContext(ctx).Info("follow created",
		zap.Uint("follower_id", userID), zap.Uint("author_id", authorID))
	return nil
}

// FollowIdempotent is Follow with self and duplicate follows reported as
// created=false instead of an error.
func (s *RelationshipService) FollowIdempotent(ctx context.Context, userID, authorID uint) (bool, error) {
	err := s.Follow(ctx, userID, authorID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, models.ErrSelfFollow), errors.Is(err, models.ErrDuplicateFollow):
		return false, nil
	default:
		return false, err
	}
}

// FollowByUsername resolves the author and follows idempotently.
func (s *RelationshipService) FollowByUsername(ctx context.Context, userID uint, username string) (bool, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return s.FollowIdempotent(ctx, userID, author.ID)
}

// Unfollow removes the edge; a missing edge is a NotFound error.
func (s *RelationshipService) Unfollow(ctx context.Context, userID, authorID uint) error {
	if err := s.follows.Delete(ctx, userID, authorID); err != nil {
		return err
	}
	observability.FollowEvents.WithLabelValues("unfollow").Inc()
	middleware.LoggerFromContext(ctx).Info("follow removed",
		zap.Uint("follower_id", userID), zap.Uint("author_id", authorID))
	return nil
}

// UnfollowByUsername fails with a "User" NotFound for an unknown username and
// a "Follow" NotFound when the caller does not follow that user.
func (s *RelationshipService) UnfollowByUsername(ctx context.Context, userID uint, username string) error {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.Unfollow(ctx, userID, author.ID)
}

func (s *RelationshipService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.follows.Exists(ctx, userID, authorID)
}

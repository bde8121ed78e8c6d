package service

import (
	"context"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"go.uber.org/zap"
)

// InvalidGroupMessage is the field error for a group that does not exist.
const InvalidGroupMessage = "Select a valid choice. That choice is not one of the available choices."

type PostService struct {
	posts  repository.PostRepository
	groups repository.GroupRepository
}

type CreatePostInput struct {
	AuthorID uint   `json:"-"`
	Text     string `json:"text" validate:"notblank,max=50000"`
	GroupID  *uint  `json:"group"`
	// Image is a stored asset reference, already saved by the caller.
	Image string `json:"image"`
}

type UpdatePostInput struct {
	UserID     uint   `json:"-"`
	PostID     uint   `json:"-"`
	Text       string `json:"text" validate:"notblank,max=50000"`
	GroupID    *uint  `json:"group"`
	Image      string `json:"image"`
	ClearImage bool   `json:"clear_image"`
}

func NewPostService(posts repository.PostRepository, groups repository.GroupRepository) *PostService {
	return &PostService{posts: posts, groups: groups}
}

// GetPost returns a post by id.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// ListGroups returns the choices offered by the post form.
func (s *PostService) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.groups.List(ctx)
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, err
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	in.Text = strings.TrimSpace(in.Text)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     in.Text,
		AuthorID: in.AuthorID,
		GroupID:  in.GroupID,
		Image:    in.Image,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	observability.PostsCreated.Inc()
	middleware.LoggerFromContext(ctx).Info("post created",
		zap.Uint("post_id", post.ID), zap.Uint("author_id", post.AuthorID))
	return post, nil
}

// UpdatePost applies an edit by the post's author. Any other caller gets an
// UNAUTHORIZED error and the post is left as it was.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewUnauthorizedError("Only the author can edit this post")
	}

	in.Text = strings.TrimSpace(in.Text)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Group = nil
	switch {
	case in.Image != "":
		post.Image = in.Image
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) checkGroup(ctx context.Context, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	if _, err := s.groups.GetByID(ctx, *groupID); err != nil {
		if models.IsNotFound(err) {
			return models.NewFieldValidationError(map[string]string{"group": InvalidGroupMessage})
		}
		return err
	}
	return nil
}

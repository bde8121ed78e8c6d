package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter, limit, offset int) ([]models.Post, error)
	Count(ctx context.Context, filter models.PostFilter) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// Update rewrites the editable columns. A nil GroupID is written as NULL.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "posts", "GetByID")
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	observability.EndSpan(span, ignoreNotFound(err))
	if err != nil {
		return nil, notFound(err, "Post", id)
	}
	return &post, nil
}

// List returns posts newest first; ties on created_at fall back to id.
func (r *postRepository) List(ctx context.Context, filter models.PostFilter, limit, offset int) ([]models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "posts", "List")
	var posts []models.Post
	err := r.applyFilter(r.db.WithContext(ctx), filter).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	observability.EndSpan(span, err)
	return posts, err
}

func (r *postRepository) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Post{}), filter).Count(&count).Error
	return count, err
}

func (r *postRepository) applyFilter(q *gorm.DB, filter models.PostFilter) *gorm.DB {
	if filter.GroupID != nil {
		q = q.Where("posts.group_id = ?", *filter.GroupID)
	}
	if filter.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *filter.AuthorID)
	}
	if filter.FollowedBy != nil {
		followed := r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", *filter.FollowedBy)
		q = q.Where("posts.author_id IN (?)", followed)
	}
	return q
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

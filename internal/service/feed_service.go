package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultPostsPerPage = 10
	DefaultCacheTTL     = 20 * time.Second
)

// FeedConfig holds listing settings.
type FeedConfig struct {
	PostsPerPage int
	CacheTTL     time.Duration
}

// FeedService answers read-only listing queries.
type FeedService struct {
	posts     repository.PostRepository
	comments  repository.CommentRepository
	groups    repository.GroupRepository
	users     repository.UserRepository
	relations *RelationshipService
	pages     cache.PageCache
	perPage   int
	cacheTTL  time.Duration
}

// AuthorPage is a profile listing with the viewer's follow state.
type AuthorPage struct {
	Author    models.User              `json:"author"`
	Page      models.Page[models.Post] `json:"page"`
	Following bool                     `json:"following"`
}

// GroupPage is a group listing.
type GroupPage struct {
	Group models.Group             `json:"group"`
	Page  models.Page[models.Post] `json:"page"`
}

// PostDetail is a post with its conversation.
type PostDetail struct {
	Post             models.Post      `json:"post"`
	Comments         []models.Comment `json:"comments"`
	AuthorPostsCount int64            `json:"author_posts_count"`
}

func NewFeedService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	relations *RelationshipService,
	pages cache.PageCache,
	cfg FeedConfig,
) *FeedService {
	if cfg.PostsPerPage <= 0 {
		cfg.PostsPerPage = DefaultPostsPerPage
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if pages == nil {
		pages = cache.NewMemoryPageCache(cache.IndexPagePrefix)
	}
	return &FeedService{
		posts:     posts,
		comments:  comments,
		groups:    groups,
		users:     users,
		relations: relations,
		pages:     pages,
		perPage:   cfg.PostsPerPage,
		cacheTTL:  cfg.CacheTTL,
	}
}

func (s *FeedService) paginate(ctx context.Context, filter models.PostFilter, page int) (models.Page[models.Post], error) {
	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	p := models.Paginator{PerPage: s.perPage, Total: total}
	number := p.Clamp(page)
	if total == 0 {
		return models.NewPage[models.Post](nil, number, p), nil
	}
	items, err := s.posts.List(ctx, filter, s.perPage, p.Offset(number))
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return models.NewPage(items, number, p), nil
}

// ListAll returns every post, newest first.
func (s *FeedService) ListAll(ctx context.Context, page int) (models.Page[models.Post], error) {
	return s.paginate(ctx, models.PostFilter{}, page)
}

// ListByGroup returns the posts of the group identified by slug.
func (s *FeedService) ListByGroup(ctx context.Context, slug string, page int) (*GroupPage, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	p, err := s.paginate(ctx, models.PostFilter{GroupID: &group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupPage{Group: *group, Page: p}, nil
}

// ListByAuthor returns a user's posts. viewerID is zero for anonymous viewers.
func (s *FeedService) ListByAuthor(ctx context.Context, username string, viewerID uint, page int) (*AuthorPage, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	p, err := s.paginate(ctx, models.PostFilter{AuthorID: &author.ID}, page)
	if err != nil {
		return nil, err
	}
	following, err := s.relations.IsFollowing(ctx, viewerID, author.ID)
	if err != nil {
		return nil, err
	}
	return &AuthorPage{Author: *author, Page: p, Following: following}, nil
}

// ListFollowedFeed returns posts by authors the viewer follows.
func (s *FeedService) ListFollowedFeed(ctx context.Context, viewerID uint, page int) (models.Page[models.Post], error) {
	return s.paginate(ctx, models.PostFilter{FollowedBy: &viewerID}, page)
}

// PostDetail loads a post, its comments oldest first and its author's post count.
func (s *FeedService) PostDetail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, models.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return &PostDetail{Post: *post, Comments: comments, AuthorPostsCount: count}, nil
}

// RenderIndex returns the JSON rendering of ListAll for page, serving it from
// the page cache while the entry lives. New posts do not evict entries.
// Entries are keyed by the clamped page number, so out-of-range requests
// share the entry of the page they render.
func (s *FeedService) RenderIndex(ctx context.Context, page int) ([]byte, error) {
	total, err := s.posts.Count(ctx, models.PostFilter{})
	if err != nil {
		return nil, err
	}
	page = models.Paginator{PerPage: s.perPage, Total: total}.Clamp(page)
	key := strconv.Itoa(page)
	log := middleware.LoggerFromContext(ctx)

	body, ok, err := s.pages.Get(ctx, key)
	if err != nil {
		log.Warn("page cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		observability.PageCacheRequests.WithLabelValues("hit").Inc()
		return body, nil
	}
	observability.PageCacheRequests.WithLabelValues("miss").Inc()

	p, err := s.ListAll(ctx, page)
	if err != nil {
		return nil, err
	}
	body, err = json.Marshal(p)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.pages.Set(ctx, key, body, s.cacheTTL); err != nil {
		log.Warn("page cache write failed", zap.String("key", key), zap.Error(err))
	}
	return body, nil
}

// FlushIndex drops every cached index rendering.
func (s *FeedService) FlushIndex(ctx context.Context) (int, error) {
	n, err := s.pages.Flush(ctx)
	if err != nil {
		return n, err
	}
	middleware.LoggerFromContext(ctx).Info("index page cache flushed", zap.Int("entries", n))
	return n, nil
}

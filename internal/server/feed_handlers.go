package server

import (
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /
// @Summary Front page
// @Description All posts, newest first. Served from the page cache, so a new post may appear only after CACHE_TIME seconds or a flush.
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} models.Page[models.Post]
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	body, err := s.feedService.RenderIndex(c.UserContext(), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}

// GroupPosts handles GET /group/:slug/
// @Summary Group posts
// @Tags posts
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "Page number"
// @Success 200 {object} service.GroupPage
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug}/ [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	result, err := s.feedService.ListByGroup(c.UserContext(), slug, parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Profile handles GET /profile/:username/
// @Summary Author profile
// @Description An author's posts and whether the caller follows them.
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} service.AuthorPage
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	result, err := s.feedService.ListByAuthor(c.UserContext(),
		c.Params("username"), middleware.CurrentUserID(c), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// PostDetail handles GET /posts/:id/
// @Summary Post detail
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.feedService.PostDetail(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// FollowIndex handles GET /follow/
// @Summary Followed feed
// @Description Posts by authors the caller follows. Empty when the caller follows nobody.
// @Tags follows
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} models.Page[models.Post]
// @Success 302 "Redirect to login"
// @Security BearerAuth
// @Router /follow/ [get]
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.feedService.ListFollowedFeed(c.UserContext(), middleware.CurrentUserID(c), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// FlushCache handles POST /admin/cache/flush
// @Summary Flush the front page cache
// @Tags admin
// @Produce json
// @Success 200 {object} object{flushed=int}
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/cache/flush [post]
func (s *Server) FlushCache(c *fiber.Ctx) error {
	n, err := s.feedService.FlushIndex(c.UserContext())
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"flushed": n})
}

package server

import (
	"inkwell/internal/authz"
	"inkwell/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ProfileFollow handles POST /profile/:username/follow/
// Following oneself or an author already followed is a silent no-op.
// @Summary Follow an author
// @Tags follows
// @Param username path string true "Username"
// @Success 302 "Redirect to the author's profile"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/{username}/follow/ [post]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := s.relationshipService.FollowByUsername(c.UserContext(), middleware.CurrentUserID(c), username); err != nil {
		return respondError(c, err)
	}
	return c.Redirect(authz.ProfileURL(username), fiber.StatusFound)
}

// ProfileUnfollow handles POST /profile/:username/unfollow/
// @Summary Unfollow an author
// @Description Unknown usernames and authors the caller does not follow both answer 404.
// @Tags follows
// @Param username path string true "Username"
// @Success 302 "Redirect to the author's profile"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/{username}/unfollow/ [post]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := s.relationshipService.UnfollowByUsername(c.UserContext(), middleware.CurrentUserID(c), username); err != nil {
		return respondError(c, err)
	}
	return c.Redirect(authz.ProfileURL(username), fiber.StatusFound)
}

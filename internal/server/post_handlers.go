package server

import (
	"errors"
	"strconv"
	"strings"

	"inkwell/internal/authz"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postForm is the submitted post body. Forms send group as a string, JSON
// clients as a number or null.
type postForm struct {
	Text       string
	GroupID    *uint
	ClearImage bool
}

func parsePostForm(c *fiber.Ctx) (postForm, error) {
	if c.Is("json") {
		var body struct {
			Text       string `json:"text"`
			Group      *uint  `json:"group"`
			ClearImage bool   `json:"clear_image"`
		}
		if err := c.BodyParser(&body); err != nil {
			return postForm{}, models.NewValidationError("Invalid request body")
		}
		return postForm{Text: body.Text, GroupID: body.Group, ClearImage: body.ClearImage}, nil
	}

	form := postForm{Text: c.FormValue("text")}
	switch strings.ToLower(c.FormValue("clear_image")) {
	case "1", "on", "true":
		form.ClearImage = true
	}
	if raw := strings.TrimSpace(c.FormValue("group")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return postForm{}, models.NewFieldValidationError(map[string]string{"group": service.InvalidGroupMessage})
		}
		gid := uint(id)
		form.GroupID = &gid
	}
	return form, nil
}

func commentText(c *fiber.Ctx) (string, error) {
	if c.Is("json") {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil {
			return "", models.NewValidationError("Invalid request body")
		}
		return body.Text, nil
	}
	return c.FormValue("text"), nil
}

// CreatePostForm handles GET /create/
// @Summary Post form choices
// @Tags posts
// @Produce json
// @Success 200 {object} object{groups=[]models.Group}
// @Success 302 "Redirect to login"
// @Security BearerAuth
// @Router /create/ [get]
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	groups, err := s.postService.ListGroups(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"groups": groups})
}

// CreatePost handles POST /create/
// @Summary Create a post
// @Tags posts
// @Accept json,x-www-form-urlencoded,mpfd
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Image"
// @Success 302 "Redirect to the author's profile"
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /create/ [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, err := parsePostForm(c)
	if err != nil {
		return respondError(c, err)
	}
	image, err := s.saveImage(c)
	if err != nil {
		return respondError(c, err)
	}

	_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: middleware.CurrentUserID(c),
		Text:     form.Text,
		GroupID:  form.GroupID,
		Image:    image,
	})
	if err != nil {
		s.discardImage(c, image)
		return respondError(c, err)
	}
	return c.Redirect(authz.ProfileURL(middleware.CurrentUsername(c)), fiber.StatusFound)
}

// EditPostForm handles GET /posts/:id/edit/
// @Summary Post edit form
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post=models.Post,groups=[]models.Group}
// @Success 302 "Redirect to login or to the post"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/edit/ [get]
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	post, _ := c.Locals("post").(*models.Post)
	if post == nil {
		return respondError(c, errors.New("edit form reached without a resolved post"))
	}
	groups, err := s.postService.ListGroups(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": post, "groups": groups, "is_edit": true})
}

// EditPost handles POST /posts/:id/edit/
// @Summary Edit a post
// @Description Only the author may edit; anyone else is redirected to the post.
// @Tags posts
// @Accept json,x-www-form-urlencoded,mpfd
// @Param id path int true "Post ID"
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Image"
// @Param clear_image formData bool false "Remove the current image"
// @Success 302 "Redirect to the post"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/edit/ [post]
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	form, err := parsePostForm(c)
	if err != nil {
		return respondError(c, err)
	}
	image, err := s.saveImage(c)
	if err != nil {
		return respondError(c, err)
	}

	_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:     middleware.CurrentUserID(c),
		PostID:     id,
		Text:       form.Text,
		GroupID:    form.GroupID,
		Image:      image,
		ClearImage: form.ClearImage,
	})
	if err != nil {
		s.discardImage(c, image)
		// ownership changed between the gate and the write
		if models.HasCode(err, models.CodeUnauthorized) {
			return c.Redirect(authz.PostDetailURL(id), fiber.StatusFound)
		}
		return respondError(c, err)
	}
	return c.Redirect(authz.PostDetailURL(id), fiber.StatusFound)
}

// AddComment handles POST /posts/:id/comment/
// @Summary Comment on a post
// @Tags posts
// @Accept json,x-www-form-urlencoded
// @Param id path int true "Post ID"
// @Param text formData string true "Comment text"
// @Success 302 "Redirect to the post"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comment/ [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	text, err := commentText(c)
	if err != nil {
		return respondError(c, err)
	}

	_, err = s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: middleware.CurrentUserID(c),
		PostID:   id,
		Text:     text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect(authz.PostDetailURL(id), fiber.StatusFound)
}

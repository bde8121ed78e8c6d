package server

import (
	"errors"
	"strconv"
	"strings"

	"inkwell/internal/authz"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// errResponseWritten signals that a helper already committed the response.
// Handlers return nil when they see it so the ErrorHandler does not overwrite it.
var errResponseWritten = errors.New("response already written")

// resourceFunc describes the entity an operation touches. It may write a
// response itself and return errResponseWritten.
type resourceFunc func(c *fiber.Ctx) (authz.Resource, error)

// parsePage reads the "page" query parameter. Anything that is not a number
// means the first page; out-of-range numbers are clamped by the paginator.
func parsePage(c *fiber.Ctx) int {
	page, err := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	if err != nil {
		return 1
	}
	return page
}

// parseID extracts a route parameter as a positive uint. Malformed ids can
// never name an entity, so they answer 404.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// statusFor maps an AppError code to its HTTP status.
func statusFor(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation, models.CodeSelfFollow:
		return fiber.StatusBadRequest
	case models.CodeDuplicateFollow:
		return fiber.StatusConflict
	case models.CodeUnauthorized:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server-side failures are
// logged and reported; their causes are not echoed.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.LoggerFromContext(c.UserContext()).Error("request failed",
			zap.String("path", c.Path()), zap.Error(err))
		observability.CaptureError(err, map[string]string{"path": c.Path()})
		if !models.HasCode(err, models.CodeInternal) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

func caller(c *fiber.Ctx) authz.Caller {
	return authz.Caller{
		UserID:  middleware.CurrentUserID(c),
		IsAdmin: middleware.IsAdmin(c),
	}
}

// Gate evaluates op for the current caller and turns the decision into a
// response: Permit continues, Redirect answers 302 and Deny answers 403.
func (s *Server) Gate(op authz.Operation, resource resourceFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := authz.Resource{URL: c.OriginalURL()}
		if resource != nil {
			var err error
			res, err = resource(c)
			if errors.Is(err, errResponseWritten) {
				return nil
			}
			if err != nil {
				return respondError(c, err)
			}
		}

		decision := s.policy.Authorize(op, caller(c), res)
		switch decision.Outcome {
		case authz.Permit:
			return c.Next()
		case authz.Redirect:
			return c.Redirect(decision.Target, fiber.StatusFound)
		default:
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("You do not have permission to perform this action"))
		}
	}
}

// postOwner resolves the post named by :id for ownership checks. Anonymous
// callers are sent to login before the post is looked up.
func (s *Server) postOwner(c *fiber.Ctx) (authz.Resource, error) {
	res := authz.Resource{URL: c.OriginalURL()}
	if middleware.CurrentUserID(c) == 0 {
		return res, nil
	}

	id, err := parseID(c, "id")
	if err != nil {
		return res, err
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return res, err
	}
	res.OwnerID = post.AuthorID
	res.PostID = post.ID
	c.Locals("post", post)
	return res, nil
}

// Package middleware provides request identity, logging, tracing and rate limiting.
package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// IdentityConfig configures token verification for the external identity provider.
type IdentityConfig struct {
	Secret string
	// Issuer is checked against the "iss" claim when set.
	Issuer string
}

// UserMirror persists the local copy of an authenticated identity.
type UserMirror func(ctx context.Context, user *models.User) error

// IdentityClaims are the claims read from provider tokens.
type IdentityClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	Admin             bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Identify resolves the caller from an optional bearer token. Requests without
// a token continue anonymously; a token that fails verification is rejected.
// Verified identities are mirrored into the users table and exposed through
// the userID, username and isAdmin locals.
func Identify(cfg IdentityConfig, mirror UserMirror) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return unauthorized(c, "Invalid authorization header format")
		}

		claims, err := ParseIdentityToken(cfg, parts[1])
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 32)
		if err != nil || userID == 0 {
			return unauthorized(c, "Invalid user ID in token")
		}

		user := &models.User{
			ID:          uint(userID),
			Username:    claims.PreferredUsername,
			DisplayName: claims.Name,
		}
		if user.Username == "" {
			user.Username = fmt.Sprintf("user%d", userID)
		}
		if mirror != nil {
			if err := mirror(c.UserContext(), user); err != nil {
				LoggerFromContext(c.UserContext()).Error("failed to mirror identity",
					zap.Uint("user_id", user.ID), zap.Error(err))
				return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
			}
		}

		c.Locals("userID", user.ID)
		c.Locals("username", user.Username)
		c.Locals("isAdmin", claims.Admin)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))

		return c.Next()
	}
}

// ParseIdentityToken verifies an HMAC-signed token and returns its claims.
func ParseIdentityToken(cfg IdentityConfig, tokenString string) (*IdentityClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(message))
}

// CurrentUserID returns the authenticated user id, or zero for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// CurrentUsername returns the authenticated username, or "".
func CurrentUsername(c *fiber.Ctx) string {
	name, _ := c.Locals("username").(string)
	return name
}

// IsAdmin reports whether the token carried the admin claim.
func IsAdmin(c *fiber.Ctx) bool {
	admin, _ := c.Locals("isAdmin").(bool)
	return admin
}

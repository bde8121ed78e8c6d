package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-123"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func identityApp(cfg IdentityConfig, mirror UserMirror) *fiber.App {
	app := fiber.New()
	app.Use(Identify(cfg, mirror))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":       CurrentUserID(c),
			"username": CurrentUsername(c),
			"admin":    IsAdmin(c),
		})
	})
	return app
}

func TestIdentify(t *testing.T) {
	var mirrored []models.User
	mirror := func(_ context.Context, u *models.User) error {
		mirrored = append(mirrored, *u)
		return nil
	}
	app := identityApp(IdentityConfig{Secret: testSecret, Issuer: "https://id.example.com"}, mirror)

	valid := signToken(t, testSecret, jwt.MapClaims{
		"sub":                "42",
		"iss":                "https://id.example.com",
		"preferred_username": "leo",
		"name":               "Leo",
		"admin":              true,
		"exp":                time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"anonymous", "", fiber.StatusOK},
		{"valid token", "Bearer " + valid, fiber.StatusOK},
		{"bad scheme", "Token " + valid, fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"sub": "42", "iss": "https://id.example.com"}), fiber.StatusUnauthorized},
		{"wrong issuer", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "42", "iss": "https://evil.example.com"}), fiber.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": "42", "iss": "https://id.example.com", "exp": time.Now().Add(-time.Hour).Unix(),
		}), fiber.StatusUnauthorized},
		{"non numeric subject", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "leo", "iss": "https://id.example.com"}), fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	require.Len(t, mirrored, 1)
	assert.Equal(t, uint(42), mirrored[0].ID)
	assert.Equal(t, "leo", mirrored[0].Username)
	assert.Equal(t, "Leo", mirrored[0].DisplayName)
}

func TestIdentify_MirrorFailure(t *testing.T) {
	app := identityApp(IdentityConfig{Secret: testSecret}, func(context.Context, *models.User) error {
		return errors.New("db down")
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "7"}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestParseIdentityToken_DefaultUsername(t *testing.T) {
	var got models.User
	app := identityApp(IdentityConfig{Secret: testSecret}, func(_ context.Context, u *models.User) error {
		got = *u
		return nil
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "9"}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "user9", got.Username)
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finquest/apperr"
	"finquest/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func setup(t *testing.T) *fiber.App {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: "test-secret"}

	app := fiber.New()
	app.Get("/me", JWTMiddleware, func(c *fiber.Ctx) error {
		return JsonResponse(c, fiber.StatusOK, true, "ok", fiber.Map{"userId": UserID(c)})
	})
	app.Get("/admin", JWTMiddleware, RequireRole(ServiceRole), func(c *fiber.Ctx) error {
		return JsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, token string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	app := setup(t)
	user := uuid.NewString()
	token, err := GenerateJWT(user, "a@b.c", "authenticated", time.Hour)
	require.NoError(t, err)

	status, body := call(t, app, "/me", token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, user, body.Data["userId"])
}

func TestJWTMiddlewareRejects(t *testing.T) {
	app := setup(t)

	status, body := call(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Status)

	status, _ = call(t, app, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	expired, err := GenerateJWT(uuid.NewString(), "", "authenticated", -time.Minute)
	require.NoError(t, err)
	status, _ = call(t, app, "/me", expired)
	assert.Equal(t, http.StatusUnauthorized, status)

	notUUID, err := GenerateJWT("42", "", "authenticated", time.Hour)
	require.NoError(t, err)
	status, _ = call(t, app, "/me", notUUID)
	assert.Equal(t, http.StatusUnauthorized, status)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.NewString(), "exp": time.Now().Add(time.Hour).Unix()})
	forged, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	status, _ = call(t, app, "/me", forged)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequireRole(t *testing.T) {
	app := setup(t)

	user, err := GenerateJWT(uuid.NewString(), "", "authenticated", time.Hour)
	require.NoError(t, err)
	status, _ := call(t, app, "/admin", user)
	assert.Equal(t, http.StatusForbidden, status)

	admin, err := GenerateJWT(uuid.NewString(), "", ServiceRole, time.Hour)
	require.NoError(t, err)
	status, _ = call(t, app, "/admin", admin)
	assert.Equal(t, http.StatusOK, status)
}

func TestErrorResponse(t *testing.T) {
	app := fiber.New()
	app.Get("/:kind", func(c *fiber.Ctx) error {
		switch c.Params("kind") {
		case "balance":
			return ErrorResponse(c, apperr.InsufficientBalance(100, 70))
		case "missing":
			return ErrorResponse(c, apperr.NotFound("Lesson not found"))
		case "upstream":
			return ErrorResponse(c, apperr.Upstream("Analysis unavailable", errors.New("timeout")))
		default:
			return ErrorResponse(c, errors.New("secret internals"))
		}
	})

	status, body := call(t, app, "/balance", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Message, "short by 30")
	assert.Equal(t, float64(30), body.Data["shortfall"])

	status, _ = call(t, app, "/missing", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, app, "/upstream", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Analysis unavailable", body.Message)

	status, body = call(t, app, "/other", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestProvisionUserRunsOncePerUser(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "test-secret"}
	calls := 0
	fail := true

	app := fiber.New()
	app.Get("/x", JWTMiddleware, ProvisionUser(func(ctx context.Context, userID, email string) error {
		calls++
		if fail {
			fail = false
			return apperr.Upstream("Database unavailable, please retry", errors.New("down"))
		}
		return nil
	}, 0), func(c *fiber.Ctx) error {
		return JsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})

	token, err := GenerateJWT(uuid.NewString(), "a@b.c", "authenticated", time.Hour)
	require.NoError(t, err)

	status, _ := call(t, app, "/x", token)
	assert.Equal(t, http.StatusInternalServerError, status)
	status, _ = call(t, app, "/x", token)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, "/x", token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, calls)
}

func TestProvisionUserForgetsEvictedUsers(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "test-secret"}
	calls := map[string]int{}

	app := fiber.New()
	app.Get("/x", JWTMiddleware, ProvisionUser(func(ctx context.Context, userID, email string) error {
		calls[userID]++
		return nil
	}, 1), func(c *fiber.Ctx) error {
		return JsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})

	alice, bob := uuid.NewString(), uuid.NewString()
	aliceToken, err := GenerateJWT(alice, "", "authenticated", time.Hour)
	require.NoError(t, err)
	bobToken, err := GenerateJWT(bob, "", "authenticated", time.Hour)
	require.NoError(t, err)

	for _, token := range []string{aliceToken, aliceToken, bobToken, aliceToken} {
		status, _ := call(t, app, "/x", token)
		require.Equal(t, http.StatusOK, status)
	}
	assert.Equal(t, 2, calls[alice])
	assert.Equal(t, 1, calls[bob])
}

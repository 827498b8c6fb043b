package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finquest/config"
	"finquest/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
)

// GenerateJWT signs a token shaped like the ones issued by Supabase auth.
// It is used by tests and local tooling.
func GenerateJWT(userID, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"aud":   "authenticated",
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTKey))
}

// JWTMiddleware verifies the bearer token and stores userId, email and role
// in the request locals.
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid Authorization header format", nil)
	}
	tokenString := strings.TrimSpace(authHeader[len("Bearer "):])

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
	}
	sub, _ := claims["sub"].(string)
	if _, err := uuid.Parse(sub); err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	c.Locals("userId", sub)
	c.Locals("email", email)
	c.Locals("role", role)
	return c.Next()
}

// UserID returns the authenticated user id set by JWTMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userId").(string)
	return id
}

// DefaultProvisionCacheSize bounds how many provisioned user ids a process
// remembers.
const DefaultProvisionCacheSize = 10000

// ProvisionUser creates the user's records the first time this process sees
// them. Up to cacheSize recently seen users are remembered; an evicted user
// is provisioned again, which is idempotent. Failures are not cached, so the
// next request retries.
func ProvisionUser(ensure func(ctx context.Context, userID, email string) error, cacheSize int) fiber.Handler {
	if cacheSize <= 0 {
		cacheSize = DefaultProvisionCacheSize
	}
	seen, _ := lru.New(cacheSize)
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}
		if seen.Contains(userID) {
			return c.Next()
		}
		email, _ := c.Locals("email").(string)
		if err := ensure(c.UserContext(), userID, email); err != nil {
			utils.Log.Errorw("user provisioning failed", "userId", userID, "error", err)
			return ErrorResponse(c, err)
		}
		seen.Add(userID, struct{}{})
		return c.Next()
	}
}

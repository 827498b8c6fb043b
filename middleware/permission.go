package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// ServiceRole is the role carried by Supabase service keys.
const ServiceRole = "service_role"

// RequireRole returns a middleware that only lets tokens with the given role
// through. It must run after JWTMiddleware.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}
		if got, _ := c.Locals("role").(string); got != role {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}

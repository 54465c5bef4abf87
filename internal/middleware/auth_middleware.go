package middleware

import (
	"strings"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/repository"
	"go-storefront-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token and loads the session user into
// the request context.
func RequireAuth(userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperr.Unauthorized("missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.Unauthorized("invalid authorization format, use: Bearer <token>")
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return apperr.Unauthorized("invalid or expired token")
		}

		// Strict session check against the DB
		user, err := userRepo.FindByID(claims.UserID)
		if err != nil {
			return apperr.Unauthorized("user not found")
		}
		if !user.IsActive {
			return apperr.Unauthorized("user account is inactive")
		}
		if user.TokenVersion != claims.TokenVersion {
			return apperr.Unauthorized("session expired (logged in on another device)")
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.FullName)
		c.Locals("user_role", user.Role)

		return c.Next()
	}
}

// RequireRole gates a route to the given roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(string)
		if !ok {
			return apperr.Forbidden("no role found")
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return apperr.Forbidden("forbidden: requires one of " + strings.Join(roles, ", ") + " roles")
	}
}

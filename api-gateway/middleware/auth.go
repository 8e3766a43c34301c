package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/cosmetics-recommender/pkg/auth"
	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// AdminWrites lets reads through and requires an admin bearer token for
// every mutating method. A nil signer rejects all writes.
func AdminWrites(signer *auth.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !isWrite(c.Method()) {
			return c.Next()
		}

		if signer == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"success": false,
				"error":   "Catalog writes are disabled: JWT secret not configured",
			})
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Authorization header required",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid authorization header format",
			})
		}

		claims, err := signer.ValidateToken(parts[1])
		if err != nil {
			logger.Debug(c.UserContext()).Err(err).Str("path", c.Path()).Msg("Rejected token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid token",
			})
		}

		if !claims.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Admin access required",
			})
		}

		c.Locals("subject", claims.Subject)
		c.Locals("role", claims.Role)

		c.Request().Header.Set("X-User-Subject", claims.Subject)
		c.Request().Header.Set("X-User-Role", claims.Role)

		return c.Next()
	}
}

func isWrite(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	}
	return false
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lixenwraith/auth"
)

// TokenRequired gates the API behind a bearer token when the daemon was
// started with one. The handler receives only the token's hash; the
// plaintext never leaves main.
func TokenRequired(tokenHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenHash == "" {
			return c.Next()
		}

		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error: "missing bearer token",
				Code:  ErrUnauthorized,
			})
		}
		if err := auth.VerifyPassword(token, tokenHash); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error: "invalid token",
				Code:  ErrUnauthorized,
			})
		}
		return c.Next()
	}
}

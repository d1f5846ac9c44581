package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/localmart/internal/config"
	"github.com/example/localmart/internal/models"
	"github.com/example/localmart/internal/utils"
)

const sessionContextKey = "currentSession"

// Auth validates the bearer token and loads the session into context.
func Auth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessionFromHeader(cfg, c)
		if err != nil {
			return err
		}
		if session == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
		}

		c.Locals(sessionContextKey, *session)
		return c.Next()
	}
}

// OptionalAuth loads a session when a valid bearer token is present but lets
// anonymous requests through. Used by the catalog, which only needs the
// caller's identity to resolve a default delivery area.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session, err := sessionFromHeader(cfg, c); err == nil && session != nil {
			c.Locals(sessionContextKey, *session)
		}
		return c.Next()
	}
}

// RequireMerchant rejects sessions that do not belong to a merchant account.
// Must run after Auth.
func RequireMerchant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := CurrentSession(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
		}
		if session.Role != models.RoleMerchant {
			return fiber.NewError(fiber.StatusForbidden, "MERCHANT_ONLY")
		}
		return c.Next()
	}
}

// CurrentSession extracts the authenticated session from context.
func CurrentSession(c *fiber.Ctx) (utils.Session, bool) {
	value := c.Locals(sessionContextKey)
	if value == nil {
		return utils.Session{}, false
	}

	session, ok := value.(utils.Session)
	return session, ok
}

func sessionFromHeader(cfg *config.Config, c *fiber.Ctx) (*utils.Session, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	session, err := utils.ParseToken(cfg.JWTSecret, parts[1])
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	return &session, nil
}

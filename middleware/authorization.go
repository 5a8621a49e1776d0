package middleware

import (
	"strings"

	"homestay-registration-backend/config"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const actorKey = "actor"

// RequireActor verifies the bearer token (or the access_token cookie) and
// stores the actor in the request locals.
func RequireActor(maker token.Maker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			return unauthorized(c, "Authentication required")
		}

		payload, err := maker.VerifyToken(accessToken)
		if err != nil {
			config.Logger.Debug("Invalid access token encountered", zap.Error(err))
			return unauthorized(c, "Session expired or invalid. Please sign in again.")
		}

		c.Locals(actorKey, payload.Actor())
		return c.Next()
	}
}

// RequireRole lets through only actors holding one of roles. It must run
// after RequireActor.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return unauthorized(c, "Authentication required")
		}
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		config.Logger.Warn("Role not permitted for route",
			zap.String("actorID", actor.UserID.String()),
			zap.String("role", string(actor.Role)),
			zap.String("path", c.Path()))
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You do not have permission to perform this action",
			"error":   "role_not_permitted",
		})
	}
}

// ActorFrom returns the actor RequireActor stored on the request.
func ActorFrom(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(actorKey).(models.Actor)
	return actor, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if scheme, value, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(value)
	}
	return c.Cookies("access_token")
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": message,
		"error":   "unauthenticated",
	})
}

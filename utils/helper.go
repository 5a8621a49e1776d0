package utils

import (
	"homestay-registration-backend/utils/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ParamUUID parses a route parameter as a UUID.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid_"+name, "%q is not a valid identifier", c.Params(name))
	}
	return id, nil
}

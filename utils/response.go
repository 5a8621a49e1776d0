package utils

import (
	"errors"

	"homestay-registration-backend/config"
	"homestay-registration-backend/utils/apperrors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindValidation:     fiber.StatusUnprocessableEntity,
	apperrors.KindConflict:       fiber.StatusConflict,
	apperrors.KindAuthorization:  fiber.StatusForbidden,
	apperrors.KindIncomplete:     fiber.StatusPreconditionFailed,
	apperrors.KindNotFound:       fiber.StatusNotFound,
	apperrors.KindInfrastructure: fiber.StatusInternalServerError,
}

// RespondError writes err as the standard failure body. Infrastructure
// failures are logged and their cause withheld from the client.
func RespondError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.Infrastructure("internal_error", err)
	}

	status, ok := statusByKind[appErr.Kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	if status == fiber.StatusInternalServerError {
		config.Logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("code", appErr.Code),
			zap.Error(err))
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong",
			"error":   appErr.Code,
		})
	}

	body := fiber.Map{
		"success": false,
		"message": appErr.Message,
		"error":   appErr.Code,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	return c.Status(status).JSON(body)
}

// RespondData writes a successful body carrying data.
func RespondData(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

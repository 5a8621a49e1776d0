package controllers

import (
	"homestay-registration-backend/applications/workflow"
	"homestay-registration-backend/db/models"
	documentServices "homestay-registration-backend/documents/services"
	"homestay-registration-backend/middleware"
	"homestay-registration-backend/utils"
	"homestay-registration-backend/utils/apperrors"

	"github.com/gofiber/fiber/v2"
)

type ApplicationController struct {
	Workflow  *workflow.Service
	Documents *documentServices.DocumentService
}

// actorOf returns the authenticated actor or writes a 401 response.
func actorOf(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
			"error":   "unauthenticated",
		})
	}
	return actor, ok
}

// parseBody decodes a JSON body into out. An empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.Validation("invalid_payload", "Invalid request payload: %v", err)
	}
	return nil
}

func respondApplication(c *fiber.Ctx, status int, message string, app *models.Application) error {
	return utils.RespondData(c, status, message, app)
}

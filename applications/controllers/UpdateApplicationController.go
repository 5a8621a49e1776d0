package controllers

import (
	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// UpdateDraftController saves owner edits while the application is a draft
// or back with the owner for corrections.
func (ac *ApplicationController) UpdateDraftController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}

	var request requests.ApplicationRequest
	if err := parseBody(c, &request); err != nil {
		return utils.RespondError(c, err)
	}

	app, err := ac.Workflow.UpdateDraft(c.UserContext(), id, actor, &request)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return respondApplication(c, fiber.StatusOK, "Application updated", app)
}

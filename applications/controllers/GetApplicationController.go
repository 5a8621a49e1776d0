package controllers

import (
	"homestay-registration-backend/utils"

	"github.com/gofiber/fiber/v2"
)

func (ac *ApplicationController) GetApplicationController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}

	app, err := ac.Workflow.GetApplication(c.UserContext(), id, actor)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return respondApplication(c, fiber.StatusOK, "Application retrieved", app)
}

// GetApplicationActionsController returns the audit trail, oldest first.
func (ac *ApplicationController) GetApplicationActionsController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}

	actions, err := ac.Workflow.ListActions(c.UserContext(), id, actor)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.RespondData(c, fiber.StatusOK, "Application actions retrieved", actions)
}

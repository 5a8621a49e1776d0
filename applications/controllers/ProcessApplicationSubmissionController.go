package controllers

import (
	"strings"

	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils"
	"homestay-registration-backend/utils/apperrors"

	"github.com/gofiber/fiber/v2"
)

// SubmitFinalController takes the owner's draft to submitted.
func (ac *ApplicationController) SubmitFinalController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}

	app, err := ac.Workflow.SubmitFinal(c.UserContext(), id, actor)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return respondApplication(c, fiber.StatusOK, "Application submitted", app)
}

// ApplyCorrectionController resubmits an application after corrections.
func (ac *ApplicationController) ApplyCorrectionController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}

	app, err := ac.Workflow.ApplyCorrection(c.UserContext(), id, actor)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return respondApplication(c, fiber.StatusOK, "Corrections submitted", app)
}

// PerformActionController runs a reviewer or payment action named by the
// :action parameter. Hyphens and underscores are interchangeable.
func (ac *ApplicationController) PerformActionController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}

	action := models.WorkflowAction(strings.ReplaceAll(c.Params("action"), "-", "_"))
	payload, known := requests.NewActionPayload(action)
	if !known {
		return utils.RespondError(c, apperrors.Validation("unknown_action", "Unknown action %q", c.Params("action")))
	}
	if err := parseBody(c, payload); err != nil {
		return utils.RespondError(c, err)
	}

	app, err := ac.Workflow.Perform(c.UserContext(), id, actor, action, payload)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return respondApplication(c, fiber.StatusOK, "Application is now "+strings.ReplaceAll(string(app.Status), "_", " "), app)
}

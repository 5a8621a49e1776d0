package controllers

import (
	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/config"
	"homestay-registration-backend/utils"
	"homestay-registration-backend/utils/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitDraftController creates a draft for the authenticated owner.
func (ac *ApplicationController) SubmitDraftController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}

	var request requests.ApplicationRequest
	if err := parseBody(c, &request); err != nil {
		return utils.RespondError(c, err)
	}

	app, err := ac.Workflow.SubmitDraft(c.UserContext(), actor, &request)
	if err != nil {
		config.Logger.Warn("Draft rejected",
			zap.String("actorID", actor.UserID.String()),
			zap.Error(err))
		return utils.RespondError(c, err)
	}
	return respondApplication(c, fiber.StatusCreated, "Draft saved", app)
}

// CreateSubmittedRequest is the body of a departmental or system submission
// made on an owner's behalf.
type CreateSubmittedRequest struct {
	OwnerID     uuid.UUID                   `json:"owner_id"`
	Application requests.ApplicationRequest `json:"application"`
}

// CreateSubmittedController creates an application directly in submitted.
func (ac *ApplicationController) CreateSubmittedController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}

	var request CreateSubmittedRequest
	if err := parseBody(c, &request); err != nil {
		return utils.RespondError(c, err)
	}
	if request.OwnerID == uuid.Nil {
		return utils.RespondError(c, apperrors.Validation("missing_owner_id", "owner_id is required"))
	}

	app, err := ac.Workflow.CreateSubmitted(c.UserContext(), actor, request.OwnerID, &request.Application)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return respondApplication(c, fiber.StatusCreated, "Application submitted", app)
}

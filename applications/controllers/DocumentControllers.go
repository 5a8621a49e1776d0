package controllers

import (
	documentServices "homestay-registration-backend/documents/services"
	"homestay-registration-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AttachDocumentController records an uploaded file's metadata against the
// application. The file itself is stored by the upload gateway.
func (ac *ApplicationController) AttachDocumentController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}

	var input documentServices.AttachDocumentInput
	if err := parseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}

	doc, err := ac.Documents.AttachDocument(c.UserContext(), id, actor, input)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.RespondData(c, fiber.StatusCreated, "Document attached", doc)
}

func (ac *ApplicationController) UpdateDocumentVerificationController(c *fiber.Ctx) error {
	actor, ok := actorOf(c)
	if !ok {
		return nil
	}
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return utils.RespondError(c, err)
	}
	docID, err := utils.ParamUUID(c, "docId")
	if err != nil {
		return utils.RespondError(c, err)
	}

	var input documentServices.VerificationInput
	if err := parseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}

	doc, err := ac.Documents.UpdateVerification(c.UserContext(), id, docID, actor, input)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.RespondData(c, fiber.StatusOK, "Document verification updated", doc)
}

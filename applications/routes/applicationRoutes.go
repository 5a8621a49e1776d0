package routes

import (
	controllers "homestay-registration-backend/applications/controllers"
	"homestay-registration-backend/applications/workflow"
	"homestay-registration-backend/db/models"
	documentServices "homestay-registration-backend/documents/services"
	"homestay-registration-backend/middleware"
	"homestay-registration-backend/token"

	"github.com/gofiber/fiber/v2"
)

func ApplicationRouterInit(
	app *fiber.App,
	tokenMaker token.Maker,
	workflowService *workflow.Service,
	documentService *documentServices.DocumentService,
) {
	applicationController := &controllers.ApplicationController{
		Workflow:  workflowService,
		Documents: documentService,
	}

	applicationRoutes := app.Group("/api/v1", middleware.RequireActor(tokenMaker))

	// Owner submission
	applicationRoutes.Post("/applications", applicationController.SubmitDraftController)
	applicationRoutes.Post("/applications/submitted",
		middleware.RequireRole(models.SystemRole, models.AdminRole),
		applicationController.CreateSubmittedController)
	applicationRoutes.Patch("/applications/:id", applicationController.UpdateDraftController)
	applicationRoutes.Post("/applications/:id/submit", applicationController.SubmitFinalController)
	applicationRoutes.Post("/applications/:id/corrections", applicationController.ApplyCorrectionController)

	// Documents
	applicationRoutes.Post("/applications/:id/documents", applicationController.AttachDocumentController)
	applicationRoutes.Patch("/applications/:id/documents/:docId/verification", applicationController.UpdateDocumentVerificationController)

	// Review workflow - use POST for actions that change state
	applicationRoutes.Post("/applications/:id/actions/:action", applicationController.PerformActionController)

	applicationRoutes.Get("/applications/:id", applicationController.GetApplicationController)
	applicationRoutes.Get("/applications/:id/actions", applicationController.GetApplicationActionsController)
}

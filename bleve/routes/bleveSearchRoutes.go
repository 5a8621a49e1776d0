package routes

import (
	"homestay-registration-backend/bleve/controllers"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/middleware"
	"homestay-registration-backend/token"

	"github.com/gofiber/fiber/v2"
)

func InitBleveRoutes(app *fiber.App, maker token.Maker, controller *controllers.SearchController) {
	search := app.Group("/api/v1/search",
		middleware.RequireActor(maker),
		middleware.RequireRole(models.DealingAssistantRole, models.DTDORole, models.AdminRole),
	)
	search.Get("/applications", controller.SearchApplicationsController)
}

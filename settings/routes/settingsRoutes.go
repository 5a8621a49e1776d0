package routes

import (
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/middleware"
	controllers "homestay-registration-backend/settings/controllers"
	settingsServices "homestay-registration-backend/settings/services"
	"homestay-registration-backend/token"

	"github.com/gofiber/fiber/v2"
)

func SettingsRouterInit(
	app *fiber.App,
	tokenMaker token.Maker,
	provider settingsServices.Provider,
	settingsService *settingsServices.SettingsService,
) {
	settingsController := &controllers.SettingsController{
		Provider: provider,
		Service:  settingsService,
	}

	settingsRoutes := app.Group("/api/v1/settings", middleware.RequireActor(tokenMaker))
	settingsRoutes.Get("/", settingsController.GetSettingsController)

	adminOnly := middleware.RequireRole(models.AdminRole)
	settingsRoutes.Put("/category-rate-bands", adminOnly, settingsController.UpdateCategoryRateBandsController)
	settingsRoutes.Put("/fee-schedule", adminOnly, settingsController.UpdateFeeScheduleController)
	settingsRoutes.Put("/upload-policy", adminOnly, settingsController.UpdateUploadPolicyController)
	settingsRoutes.Put("/flags/:key", adminOnly, settingsController.SetFlagController)
}

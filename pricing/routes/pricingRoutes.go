package routes

import (
	"retail-backoffice/pricing/controllers"

	"github.com/gofiber/fiber/v2"
)

func PricingRouterInit(app *fiber.App, pricingController *controllers.PricingController) {
	api := app.Group("/api/v1")

	api.Get("/invoice/:id/categories", pricingController.GetInvoiceCategoriesController)
	api.Post("/invoice/:id/suggest-margins", pricingController.SuggestMarginsController)
	api.Post("/invoice/:id/save-prices", pricingController.SavePricesController)
	api.Get("/invoice/:id/price-updates", pricingController.GetPriceUpdatesController)
	api.Get("/invoice/:id/price-labels.xlsx", pricingController.GetPriceLabelsController)
}

package routes

import (
	"retail-backoffice/categories/controllers"
	"retail-backoffice/categories/repositories"

	"github.com/gofiber/fiber/v2"
)

func CategoryRouterInit(app *fiber.App, categoryRepo repositories.CategoryRepository) {
	categoryController := &controllers.CategoryController{
		CategoryRepo: categoryRepo,
	}

	api := app.Group("/api/v1")
	api.Get("/categories", categoryController.ListCategoriesController)
	api.Patch("/categories/:id", categoryController.UpdateDefaultMarginController)
}

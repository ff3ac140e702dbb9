package routes

import (
	"retail-backoffice/invoices/controllers"

	"github.com/gofiber/fiber/v2"
)

func InvoiceRouterInit(app *fiber.App, invoiceController *controllers.InvoiceController) {
	api := app.Group("/api/v1")

	api.Post("/invoice/upload", invoiceController.UploadInvoiceController)
	api.Get("/invoice/:id/status", invoiceController.GetInvoiceStatusController)
	api.Post("/invoice/:id/retry", invoiceController.RetryInvoiceController)
	api.Get("/invoice/:id", invoiceController.GetInvoiceController)
	api.Delete("/invoice/:id", invoiceController.DeleteInvoiceController)
	api.Patch("/invoice/:id/items/:itemId", invoiceController.UpdateItemCategoryController)

	api.Get("/wholesalers", invoiceController.ListWholesalersController)
	api.Post("/wholesalers", invoiceController.CreateWholesalerController)
}

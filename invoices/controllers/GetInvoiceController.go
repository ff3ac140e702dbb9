package controllers

import (
	"context"

	"retail-backoffice/config"
	"retail-backoffice/db/models"
	"retail-backoffice/invoices/requests"
	"retail-backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (ic *InvoiceController) GetInvoiceController(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}

	invoice, err := ic.InvoiceRepo.GetWithItems(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "get")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   invoice,
	})
}

// DeleteInvoiceController removes the invoice with everything it owns, then
// the stored document.
func (ic *InvoiceController) DeleteInvoiceController(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}

	invoice, err := ic.InvoiceRepo.Delete(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "delete")
	}

	if invoice.StoragePublicID != "" && ic.BlobStore != nil {
		if err := ic.BlobStore.Delete(context.WithoutCancel(c.UserContext()), invoice.StoragePublicID); err != nil {
			config.Logger.Warn("Failed to delete stored invoice document",
				zap.String("invoice_id", id.String()),
				zap.String("public_id", invoice.StoragePublicID),
				zap.Error(err),
			)
		}
	}

	config.Logger.Info("Invoice deleted", zap.String("invoice_id", id.String()))
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Invoice deleted",
	})
}

// UpdateItemCategoryController lets staff fix a category the model got wrong
// or could not assign.
func (ic *InvoiceController) UpdateItemCategoryController(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid invoice ID")
	}
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid item ID")
	}

	var request requests.UpdateItemCategoryRequest
	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if err := utils.ValidateStruct(request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	invoice, err := ic.InvoiceRepo.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err, "update category")
	}
	if invoice.Status != models.InvoiceProcessed && invoice.Status != models.InvoiceFailed {
		return errorJSON(c, fiber.StatusBadRequest, "Categories can only be changed before prices are saved")
	}

	known, err := ic.CategoryRepo.IsActiveName(ctx, request.Category)
	if err != nil {
		return respondError(c, err, "update category")
	}
	if !known {
		return errorJSON(c, fiber.StatusBadRequest, "Unknown category: "+request.Category)
	}

	item, invoiceStatus, err := ic.InvoiceRepo.UpdateLineItemCategory(ctx, id, itemID, request.Category)
	if err != nil {
		return respondError(c, err, "update category")
	}
	response := fiber.Map{
		"status":         "success",
		"data":           item,
		"invoice_status": invoiceStatus,
	}
	if invoiceStatus == models.InvoiceProcessed && invoice.Status == models.InvoiceFailed {
		response["redirect_url"] = pricingURL(id)
	}
	return c.JSON(response)
}

package controllers

import (
	"errors"
	"fmt"

	category_repositories "retail-backoffice/categories/repositories"
	"retail-backoffice/config"
	"retail-backoffice/invoices/repositories"
	"retail-backoffice/invoices/services"
	"retail-backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InvoiceController struct {
	Pipeline       *services.Pipeline
	InvoiceRepo    repositories.InvoiceRepository
	WholesalerRepo repositories.WholesalerRepository
	CategoryRepo   category_repositories.CategoryRepository
	BlobStore      utils.BlobStore
	MaxUploadBytes int
}

// pricingURL is where the client goes once an invoice is processed.
func pricingURL(id uuid.UUID) string {
	return fmt.Sprintf("/api/v1/invoice/%s/categories", id)
}

func statusURL(id uuid.UUID) string {
	return fmt.Sprintf("/api/v1/invoice/%s/status", id)
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrInvoiceNotFound),
		errors.Is(err, repositories.ErrLineItemNotFound),
		errors.Is(err, repositories.ErrWholesalerNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, repositories.ErrInvalidTransition):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvoiceBusy):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	}

	config.Logger.Error("Invoice request failed",
		zap.String("action", action),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return errorJSON(c, fiber.StatusInternalServerError, err.Error())
}
